package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vedran77/voiceapp/internal/client"
)

func (c *cli) signupCmd() *cobra.Command {
	var email, city, country string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = valueOrPrompt(c.in, c.out, email, "Email"); err != nil {
				return err
			}
			password, err := promptPassword(c.in, c.out, c.tty)
			if err != nil {
				return err
			}

			app := c.newApp(nil)
			if err := app.ShowSignup(); err != nil {
				return err
			}
			if err := app.Signup(cmd.Context(), client.SignupRequest{
				Email:    email,
				Password: password,
				City:     city,
				Country:  country,
			}); err != nil {
				return fmt.Errorf("signup failed: %w", err)
			}
			if err := c.saveLogin(email); err != nil {
				return err
			}
			printUser(c.out, app.User())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&city, "city", "", "city shown on your voices")
	cmd.Flags().StringVar(&country, "country", "", "country shown on your voices")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				email = c.session.Email
			}
			if email, err = valueOrPrompt(c.in, c.out, email, "Email"); err != nil {
				return err
			}
			password, err := promptPassword(c.in, c.out, c.tty)
			if err != nil {
				return err
			}

			app := c.newApp(nil)
			if err := app.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := c.saveLogin(email); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Logged in as %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.session.Token = ""
			if err := c.session.Save(c.configPath); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			printUser(c.out, app.User())
			return nil
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var city, country string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change city or country",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			var cityPtr, countryPtr *string
			if cmd.Flags().Changed("city") {
				cityPtr = &city
			}
			if cmd.Flags().Changed("country") {
				countryPtr = &country
			}
			if cityPtr == nil && countryPtr == nil {
				return fmt.Errorf("nothing to update, pass --city or --country")
			}
			if err := app.UpdateProfile(cmd.Context(), cityPtr, countryPtr); err != nil {
				return err
			}
			printUser(c.out, app.User())
			return nil
		},
	}
	update.Flags().StringVar(&city, "city", "", "new city")
	update.Flags().StringVar(&country, "country", "", "new country")

	pic := &cobra.Command{
		Use:   "pic <image>",
		Short: "Upload a profile picture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.resume(cmd.Context(), nil)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := app.SetProfilePic(cmd.Context(), filepath.Base(args[0]), data); err != nil {
				return err
			}
			printUser(c.out, app.User())
			return nil
		},
	}

	profile.AddCommand(update, pic)
	return profile
}
