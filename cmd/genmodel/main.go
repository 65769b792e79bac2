// Command genmodel writes a baseline severity model artifact so the service can
// run without the training environment. The baseline predicts
// scale*severity + offset and ignores location.
//
// Usage:
//
//	go run ./cmd/genmodel -out disaster_severity_model.yaml
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/disaster-events-service/internal/adapter/model"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("genmodel", flag.ContinueOnError)
	out := fs.String("out", "disaster_severity_model.yaml", "output path for the model artifact")
	name := fs.String("name", "disaster_severity", "model name recorded in the artifact")
	scale := fs.Float64("scale", 1, "weight applied to the reported severity")
	offset := fs.Float64("offset", 0, "constant added to the prediction")
	if err := fs.Parse(args); err != nil {
		return err
	}

	net := baseline(*name, *scale, *offset)
	if _, err := model.New(net); err != nil {
		return fmt.Errorf("baseline model invalid: %w", err)
	}

	data, err := model.Marshal(net)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil { //nolint:gosec // artifact is not secret
		return fmt.Errorf("write %s: %w", *out, err)
	}

	log.Printf("wrote %s (%d bytes)", *out, len(data))
	return nil
}

// baseline builds a single linear layer over [latitude, longitude, severity].
func baseline(name string, scale, offset float64) model.Network {
	return model.Network{
		Name:   name,
		Inputs: model.Inputs,
		Layers: []model.Layer{{
			Weights:    [][]float64{{0}, {0}, {scale}},
			Bias:       []float64{offset},
			Activation: model.ActivationLinear,
		}},
	}
}
