package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/IamSanjayGawai/eventually-consistent-form/internal/client"
	"github.com/IamSanjayGawai/eventually-consistent-form/internal/validation"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "submission server base URL")
	email := flag.String("email", "", "submitter email")
	amount := flag.String("amount", "", "submission amount")
	flag.Parse()

	c := client.NewClient(*url)

	res, err := c.Submit(context.Background(), validation.FormInput{
		Email:  *email,
		Amount: *amount,
	})
	if err != nil {
		var ve *client.ValidationError
		if errors.As(err, &ve) {
			log.Printf("rejected before sending: %v", ve)
		} else {
			log.Printf("submission failed (request=%s): %v", res.RequestID, err)
		}
		os.Exit(1)
	}

	if res.Assumed {
		log.Printf("submission assumed complete (request=%s): server never confirmed within the poll budget", res.RequestID)
		return
	}
	log.Printf("submission complete (request=%s) at %s", res.RequestID, res.Timestamp)
}
