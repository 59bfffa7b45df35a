/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/blacktop/postforme/internal/config"
	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme/api"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	apiKeyFlag  string
	baseURLFlag string
	verboseFlag bool

	settings *config.Config
)

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postforme",
		Short: "Compose, resolve and publish social posts",
		Long: "postforme builds social posts for the Post for Me API. A post has a default caption and media, " +
			"optional per-platform and per-account overrides, and an optional schedule. " +
			"Use resolve to preview what every account receives before publishing.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
		Example: `  postforme post -m "Just launched!" -a sa_instagram-xyz -a sa_facebook-xyz --media ./launch.jpg
  postforme resolve --file post.yaml
  postforme upload ./video.mp4`,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	pf := cmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./postforme.yaml or $XDG_CONFIG_HOME/postforme/postforme.yaml)")
	pf.StringVar(&apiKeyFlag, "api-key", "", "API key (env POSTFORME_API_KEY)")
	pf.StringVar(&baseURLFlag, "base-url", "", "API base URL (env POSTFORME_BASE_URL)")
	pf.BoolVarP(&verboseFlag, "verbose", "V", false, "Enable debug logging")

	cmd.AddCommand(
		newPostCommand(),
		newResolveCommand(),
		newUploadCommand(),
		newAccountsCommand(),
		newGetCommand(),
		newCompletionCommand(),
	)

	return cmd
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	logutil.SetOutput(cmd.ErrOrStderr())

	v, err := config.New(configPath)
	if err != nil {
		return err
	}

	root := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"api_key":  "api-key",
		"base_url": "base-url",
		"verbose":  "verbose",
	} {
		if f := root.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}

	settings, err = config.FromViper(v)
	if err != nil {
		return err
	}
	logutil.SetVerbose(settings.Verbose)
	logutil.Debugf("config loaded: base_url=%s", settings.BaseURL)

	return nil
}

func newAPIClient() (*api.Client, error) {
	if settings == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := settings.ValidateForAPI(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return api.New(api.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Timeout: settings.Timeout,
	})
}
