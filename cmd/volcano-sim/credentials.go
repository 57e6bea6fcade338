package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	volcano "volcano-sdk"
	"volcano-sdk/models"
)

// resolveCredentials assembles the token endpoint credentials from the
// input configuration, lets environment variables override them so
// secrets can stay out of the file, and prompts for whatever is still
// missing when running interactively. A .env file in the working
// directory is honored.
func resolveCredentials(auth *models.Authentication) (volcano.Credentials, error) {
	godotenv.Load()

	creds := volcano.Credentials{
		TokenURL:     auth.URL,
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		Username:     auth.Username,
		Password:     auth.Password,
	}
	overrides := map[string]*string{
		"VOLCANO_TOKEN_URL":     &creds.TokenURL,
		"VOLCANO_CLIENT_ID":     &creds.ClientID,
		"VOLCANO_CLIENT_SECRET": &creds.ClientSecret,
		"VOLCANO_USERNAME":      &creds.Username,
		"VOLCANO_PASSWORD":      &creds.Password,
	}
	for env, target := range overrides {
		if v := os.Getenv(env); v != "" {
			*target = v
		}
	}

	if creds.Username != "" && creds.Password != "" {
		return creds, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return creds, fmt.Errorf("username and password are required when authentication is enabled")
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&creds.Username).
				Validate(required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(required("password")),
		),
	)
	if err := form.Run(); err != nil {
		return creds, err
	}
	return creds, nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
