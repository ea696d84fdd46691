package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"symptomcheck/client"
	"symptomcheck/ml"
)

type overrides []string

func (o *overrides) String() string { return strings.Join(*o, ",") }

func (o *overrides) Set(s string) error {
	*o = append(*o, s)
	return nil
}

func main() {
	schemaPath := flag.String("schema", "model/features.json", "feature schema the model was trained on")
	url := flag.String("url", "http://127.0.0.1:5000", "prediction service base URL")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "request timeout")
	name := flag.String("name", "", "patient name")
	age := flag.Int("age", 0, "patient age")
	gender := flag.String("gender", "", "patient gender (Male, Female, Other)")
	var sets overrides
	flag.Var(&sets, "set", "answer a symptom without prompting, as name=value (repeatable)")
	flag.Parse()

	logger := zap.Must(zap.NewDevelopment()).Sugar()
	defer logger.Sync()

	schema, err := ml.LoadSchema(*schemaPath)
	if err != nil {
		logger.Fatalf("fatal configuration error: cannot load symptom list: %v", err)
	}

	form := client.NewForm(schema, os.Stdin, os.Stdout)
	for _, s := range sets {
		feature, value, err := client.ParseOverride(s)
		if err != nil {
			logger.Fatalf("invalid -set: %v", err)
		}
		if err := form.Set(feature, value); err != nil {
			logger.Fatalf("invalid -set: %v", err)
		}
	}

	fmt.Printf("Enter patient details and answer each symptom (%d total).\n", schema.Len())
	sub, err := form.Fill(client.Patient{Name: *name, Age: *age, Gender: *gender})
	if err != nil {
		if errors.Is(err, client.ErrInvalidPatient) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			os.Exit(2)
		}
		logger.Fatalf("failed to read form: %v", err)
	}

	c := client.New(*url, *timeout)
	result, err := c.Predict(context.Background(), sub.Payload())
	switch {
	case errors.Is(err, client.ErrUnreachable):
		fmt.Fprintf(os.Stderr, "connection error: could not reach the prediction service at %s\n", *url)
		fmt.Fprintln(os.Stderr, "please make sure the server is running")
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	case result.Failed():
		fmt.Fprintf(os.Stderr, "an error occurred: %s\n", result.Error)
		os.Exit(1)
	}

	fmt.Printf("\nDisease prediction: %s\n", result.Prediction)
	fmt.Printf("Confidence score:   %s\n", result.Confidence)
	fmt.Printf("Patient:            %s\n", sub.Patient)
}
