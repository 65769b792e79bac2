package domain

import "context"

// Predictor scores an event's severity with a pre-trained model.
type Predictor interface {
	// Predict evaluates the feature row [latitude, longitude, severity] and
	// returns the model's raw scalar output.
	Predict(ctx context.Context, latitude, longitude float64, severity int) (float64, error)
}
