package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/noneedrelax/VoiceStream/internal/config"
	"github.com/noneedrelax/VoiceStream/internal/hotkey"
)

// NewDoctorCmd returns the command checking configuration, credential, hotkeys and microphone.
func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			ok := true
			check := func(name string, passed bool, detail string) {
				setupCheck(w, name, passed, detail)
				ok = ok && passed
			}

			cfg, err := deps.Config()
			if err != nil {
				check("Configuration", false, err.Error())
			} else {
				check("Configuration", true, "valid")
			}

			if cfg.Token != "" {
				check("API key", true, "configured")
			} else {
				check("API key", false, fmt.Sprintf("not set. Set OPENAI_API_KEY or VOICESTREAM_TOKEN, or write it to %s", cfg.TokenFile))
			}

			switch {
			case cfg.APIEndpoint != "":
				check("Endpoint", true, fmt.Sprintf("%s (%s)", cfg.APIEndpoint, cfg.Backend))
			case cfg.Backend == config.BackendHTTP:
				check("Endpoint", false, "API_ENDPOINT is required for the http backend")
			default:
				check("Endpoint", true, "OpenAI default")
			}

			for _, k := range []struct{ name, spec string }{
				{"Start hotkey", cfg.StartKey},
				{"Stop hotkey", cfg.StopKey},
				{"Cancel hotkey", cfg.CancelKey},
			} {
				if k.spec == "" {
					if k.name == "Cancel hotkey" {
						check(k.name, true, "disabled")
					} else {
						check(k.name, false, "not set")
					}
					continue
				}
				if _, _, err := hotkey.Parse(k.spec); err != nil {
					check(k.name, false, err.Error())
				} else {
					check(k.name, true, k.spec)
				}
			}

			devices, err := deps.Devices()
			switch {
			case err != nil:
				check("Microphone", false, err.Error())
			case len(devices) == 0:
				check("Microphone", false, "no input devices found")
			default:
				name := devices[0].Name
				for _, d := range devices {
					if d.Default {
						name = d.Name
						break
					}
				}
				check("Microphone", true, name)
			}

			if ok {
				fmt.Fprintln(w, "\nAll prerequisites met. Ready to dictate!")
			} else {
				fmt.Fprintln(w, "\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}

func setupCheck(w io.Writer, name string, passed bool, detail string) {
	mark := "✅"
	if !passed {
		mark = "❌"
	}
	fmt.Fprintf(w, "%s %s: %s\n", mark, name, detail)
}
