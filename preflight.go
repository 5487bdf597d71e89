package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"intakedesk/app/config"
)

type setting struct {
	name  string
	desc  string
	hint  string
	get   func(cfg *config.Config) string
	apply func(cfg *config.Config, value string) error
}

var settings = []setting{
	{
		name: "MODE",
		desc: "Conversation mode",
		hint: "Options: 'natural' (casual), 'rigid' (direct Q&A)",
		get:  func(cfg *config.Config) string { return cfg.Mode },
		apply: func(cfg *config.Config, value string) error {
			if value != "natural" && value != "rigid" {
				return fmt.Errorf("mode must be 'natural' or 'rigid'")
			}
			cfg.Mode = value
			return nil
		},
	},
	{
		name:  "COMPANY",
		desc:  "Company name for the conversation",
		hint:  "Any name, e.g., 'TechSavvy Inc.'",
		get:   func(cfg *config.Config) string { return cfg.Company },
		apply: func(cfg *config.Config, value string) error { cfg.Company = value; return nil },
	},
	{
		name: "AUDIO",
		desc: "Enable audio input/output",
		hint: "true = audio mode, false = text only",
		get:  func(cfg *config.Config) string { return strconv.FormatBool(cfg.Audio.Enabled) },
		apply: func(cfg *config.Config, value string) error {
			cfg.Audio.Enabled = parseBool(value)
			return nil
		},
	},
	{
		name: "LANG",
		desc: "Language for conversation",
		hint: "Options: 'en' = English, 'es' = Spanish",
		get:  func(cfg *config.Config) string { return cfg.Lang },
		apply: func(cfg *config.Config, value string) error {
			if value != "en" && value != "es" {
				return fmt.Errorf("lang must be 'en' or 'es'")
			}
			cfg.Lang = value
			return nil
		},
	},
	{
		name: "VERBOSE",
		desc: "Show debug logs",
		hint: "true = show internal logs, false = silent mode",
		get:  func(cfg *config.Config) string { return strconv.FormatBool(cfg.Verbose) },
		apply: func(cfg *config.Config, value string) error {
			cfg.Verbose = parseBool(value)
			return nil
		},
	},
	{
		name: "SILENCE_DURATION",
		desc: "Bot wait time on silence (sec)",
		hint: "e.g., 2.0",
		get:  func(cfg *config.Config) string { return fmt.Sprint(cfg.Audio.SilenceDuration) },
		apply: func(cfg *config.Config, value string) error {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			cfg.Audio.SilenceDuration = parsed
			return nil
		},
	},
	{
		name: "MAX_DURATION",
		desc: "Max listening time per user input (sec)",
		hint: "e.g., 60",
		get:  func(cfg *config.Config) string { return strconv.Itoa(cfg.Audio.MaxDuration) },
		apply: func(cfg *config.Config, value string) error {
			parsed, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			cfg.Audio.MaxDuration = parsed
			return nil
		},
	},
	{
		name: "SILENCE_THRESHOLD",
		desc: "Volume sensitivity for silence detection",
		hint: "Lower = more sensitive, e.g., 5",
		get:  func(cfg *config.Config) string { return fmt.Sprint(cfg.Audio.SilenceThreshold) },
		apply: func(cfg *config.Config, value string) error {
			parsed, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return err
			}
			cfg.Audio.SilenceThreshold = parsed
			return nil
		},
	},
}

// runPreflight lets the user review and tweak the session settings before
// the conversation starts. `confirm` proceeds, `reset` restores the loaded
// config.
func runPreflight(cfg *config.Config) {
	defaults := *cfg
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Welcome! You can customize the configuration before starting.")

	for {
		displayConfig(cfg)
		fmt.Print("Your choice: ")

		if !scanner.Scan() {
			return
		}
		choice := strings.ToUpper(strings.TrimSpace(scanner.Text()))

		switch {
		case choice == "CONFIRM":
			return

		case choice == "RESET":
			*cfg = defaults
			fmt.Println("Configuration reset to defaults.")

		default:
			entry := findSetting(choice)
			if entry == nil {
				fmt.Println("Invalid option. Please enter a valid setting name, 'confirm', or 'reset'.")
				continue
			}

			fmt.Printf("\n%s - %s\n   %s\n", entry.name, entry.desc, entry.hint)
			fmt.Printf("Enter new value for %s [%s]: ", entry.name, entry.get(cfg))

			if !scanner.Scan() {
				return
			}

			value := strings.TrimSpace(scanner.Text())
			if value == "" {
				continue
			}

			if err := entry.apply(cfg, value); err != nil {
				fmt.Println("Invalid input. Keeping previous value.")
			}
		}
	}
}

func displayConfig(cfg *config.Config) {
	fmt.Println("\nCurrent Configuration:")
	for _, entry := range settings {
		fmt.Printf("%s = %s\n", entry.name, entry.get(cfg))
	}
	fmt.Println("\nType a setting name to change it (e.g., `LANG`), `confirm` to continue, or `reset` to restore defaults.")
}

func findSetting(name string) *setting {
	for i := range settings {
		if settings[i].name == name {
			return &settings[i]
		}
	}
	return nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
