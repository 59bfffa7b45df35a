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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blacktop/postforme/internal/postforme"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const autoExternalID = "auto"

// requestFlags are the inputs shared by every command that builds a post.
type requestFlags struct {
	file            string
	message         string
	accounts        []string
	media           []string
	platformConfigs []string
	accountConfigs  []string
	schedule        string
	externalID      string
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "file", "f", "", "JSON or YAML file holding the post request")
	fs.StringVarP(&f.message, "message", "m", "", "Default caption")
	fs.StringArrayVarP(&f.accounts, "account", "a", nil, "Social account id to post to (repeatable)")
	fs.StringArrayVar(&f.media, "media", nil, "Media URL or local file (repeatable)")
	fs.StringArrayVar(&f.platformConfigs, "platform-config", nil, "Platform override as platform.key=value (repeatable)")
	fs.StringArrayVar(&f.accountConfigs, "account-config", nil, "Account override as account_id.key=value (repeatable)")
	fs.StringVar(&f.schedule, "schedule", "", "When to publish: RFC3339 time or a delay such as 2h")
	fs.StringVar(&f.externalID, "external-id", "", "Your own id for the post, or \"auto\" to generate one")
}

// build assembles a request from the file (if any) and then the flags. Flags extend or
// override what the file sets.
func (f *requestFlags) build(cmd *cobra.Command, args []string, now time.Time) (postforme.PostRequest, error) {
	var req postforme.PostRequest
	if f.file != "" {
		loaded, err := loadRequestFile(f.file)
		if err != nil {
			return req, err
		}
		req = *loaded
	}

	caption, err := resolveCaption(cmd, f.message, args, req.Caption)
	if err != nil {
		return req, err
	}
	req.Caption = caption

	req.SocialAccounts = append(req.SocialAccounts, trimAll(f.accounts)...)
	for _, m := range trimAll(f.media) {
		req.Media = append(req.Media, postforme.MediaRef{URL: m})
	}

	for _, raw := range f.platformConfigs {
		platform, key, value, err := parseOverride(raw)
		if err != nil {
			return req, fmt.Errorf("--platform-config: %w", err)
		}
		platform = strings.ToLower(platform)
		if req.PlatformConfigurations == nil {
			req.PlatformConfigurations = map[string]postforme.Configuration{}
		}
		if req.PlatformConfigurations[platform] == nil {
			req.PlatformConfigurations[platform] = postforme.Configuration{}
		}
		req.PlatformConfigurations[platform][key] = value
	}

	for _, raw := range f.accountConfigs {
		account, key, value, err := parseOverride(raw)
		if err != nil {
			return req, fmt.Errorf("--account-config: %w", err)
		}
		req.AccountConfigurations = setAccountOverride(req.AccountConfigurations, account, key, value)
	}

	if f.schedule != "" {
		at, err := parseSchedule(f.schedule, now)
		if err != nil {
			return req, err
		}
		req.ScheduledAt = &at
	}

	switch strings.TrimSpace(f.externalID) {
	case "":
	case autoExternalID:
		req.ExternalID = uuid.NewString()
	default:
		req.ExternalID = strings.TrimSpace(f.externalID)
	}

	if req.Caption == "" && len(req.Media) == 0 {
		return req, errors.New("a caption or at least one media file is required")
	}
	if len(req.SocialAccounts) == 0 {
		return req, errors.New("at least one --account is required")
	}

	return req, nil
}

func loadRequestFile(path string) (*postforme.PostRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}

	var req postforme.PostRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("parse request file %s: %w", path, err)
	}

	platforms := make(map[string]postforme.Configuration, len(req.PlatformConfigurations))
	for name, cfg := range req.PlatformConfigurations {
		lower := strings.ToLower(strings.TrimSpace(name))
		if _, dup := platforms[lower]; dup {
			return nil, fmt.Errorf("parse request file %s: platform %q is configured more than once", path, lower)
		}
		platforms[lower] = cfg
	}
	if req.PlatformConfigurations != nil {
		req.PlatformConfigurations = platforms
	}
	return &req, nil
}

// resolveCaption picks the caption from --message, positional args, the request file or a
// piped stdin, in that order.
func resolveCaption(cmd *cobra.Command, flag string, args []string, fromFile string) (string, error) {
	var caption string

	if flag != "" {
		caption = flag
	}

	if len(args) > 0 {
		if caption != "" {
			return "", errors.New("provide the caption either as an argument or with --message, not both")
		}
		caption = strings.Join(args, " ")
	}

	if caption != "" {
		return strings.TrimSpace(caption), nil
	}
	if fromFile != "" {
		return fromFile, nil
	}

	stdin := cmd.InOrStdin()
	if file, ok := stdin.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// errNullCaption rejects caption=null, which would silently keep the lower-level caption.
var errNullCaption = errors.New("caption cannot be null; omit the override to keep the default caption")

// parseOverride splits target.key=value. Values that parse as JSON keep their JSON type;
// anything else is taken as a plain string.
func parseOverride(raw string) (target, key string, value any, err error) {
	lhs, rhs, ok := strings.Cut(raw, "=")
	if !ok {
		return "", "", nil, fmt.Errorf("%q: expected target.key=value", raw)
	}
	target, key, ok = strings.Cut(strings.TrimSpace(lhs), ".")
	if !ok || target == "" || key == "" {
		return "", "", nil, fmt.Errorf("%q: expected target.key=value", raw)
	}

	if err := json.Unmarshal([]byte(rhs), &value); err == nil {
		if value == nil && key == "caption" {
			return "", "", nil, fmt.Errorf("%q: %w", raw, errNullCaption)
		}
		return target, key, value, nil
	}
	return target, key, rhs, nil
}

func setAccountOverride(configs []postforme.AccountConfiguration, account, key string, value any) []postforme.AccountConfiguration {
	for i := range configs {
		if configs[i].SocialAccountID == account {
			if configs[i].Configuration == nil {
				configs[i].Configuration = postforme.Configuration{}
			}
			configs[i].Configuration[key] = value
			return configs
		}
	}
	return append(configs, postforme.AccountConfiguration{
		SocialAccountID: account,
		Configuration:   postforme.Configuration{key: value},
	})
}

func parseSchedule(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if at, err := time.Parse(time.RFC3339, raw); err == nil {
		return at.UTC(), nil
	}
	delay, err := time.ParseDuration(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--schedule %q: expected RFC3339 time or duration", raw)
	}
	if delay <= 0 {
		return time.Time{}, fmt.Errorf("--schedule %q: delay must be positive", raw)
	}
	return now.Add(delay).UTC().Truncate(time.Second), nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
