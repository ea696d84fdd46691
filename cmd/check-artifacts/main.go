package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"symptomcheck/ml"
)

func main() {
	dir := flag.String("dir", "model", "artifact directory")
	modelType := flag.String("model_type", ml.ModelTypeDense, "model artifact type (dense, decision_tree)")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	paths := ml.DefaultArtifactPaths(*dir)
	paths.ModelType = *modelType

	artifacts, err := ml.LoadArtifacts(context.Background(), paths)
	if err != nil {
		logger.Fatalf("artifacts in %s are not usable: %v", *dir, err)
	}

	// an all-zero vector is what an empty form submits
	predictor := ml.NewPredictor(artifacts, ml.MissingZero)
	outcome, err := predictor.Predict(context.Background(), ml.Payload{})
	if err != nil {
		logger.Fatalf("all-zero prediction failed: %v", err)
	}

	fmt.Printf("features:   %d\n", artifacts.Schema.Len())
	fmt.Printf("classes:    %d\n", artifacts.Encoder.Len())
	fmt.Printf("model:      %s (%d -> %d)\n", paths.ModelType, artifacts.Model.InputDim(), artifacts.Model.OutputDim())
	fmt.Printf("all-zero:   %s %s\n", outcome.Label, outcome.FormatConfidence())
}
