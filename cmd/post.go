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
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme"
	"github.com/blacktop/postforme/internal/postforme/bluesky"
	"github.com/blacktop/postforme/internal/postforme/mastodon"
	"github.com/blacktop/postforme/internal/postforme/media"
	"github.com/blacktop/postforme/internal/postforme/twitter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type publisherFactory func(context.Context) (postforme.Publisher, error)

// directPublishers maps the platforms that can be reached without the API to their constructors.
var directPublishers = map[postforme.Platform]publisherFactory{
	postforme.PlatformBluesky: func(ctx context.Context) (postforme.Publisher, error) {
		return bluesky.New(ctx, bluesky.Config{PDSURL: bluesky.DefaultPDSURL})
	},
	postforme.PlatformMastodon: func(ctx context.Context) (postforme.Publisher, error) {
		return mastodon.New(ctx)
	},
	postforme.PlatformX: func(ctx context.Context) (postforme.Publisher, error) {
		return twitter.New(ctx)
	},
	postforme.PlatformTwitter: func(ctx context.Context) (postforme.Publisher, error) {
		return twitter.New(ctx)
	},
}

func newPostCommand() *cobra.Command {
	var (
		flags  requestFlags
		dryRun bool
		direct bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "post [caption]",
		Short: "Publish a post to one or more social accounts",
		Long: "post submits a post to the API. Local media files are uploaded first. " +
			"With --direct, Bluesky, Mastodon and X accounts are published from this machine instead.",
		Example: `  postforme post "Launch day" -a sa_instagram-abc -a sa_x-def --media ./hero.png
  postforme post -f post.yaml --schedule 2h
  postforme post -m "hello" -a sa_bluesky-me --direct`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(cmd, args, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				return previewPosts(out, req, asJSON)
			}
			if direct {
				return publishDirect(cmd.Context(), req, directPublishers, out)
			}
			return publishViaAPI(cmd.Context(), req, out, asJSON)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what each account would receive without posting")
	cmd.Flags().BoolVar(&direct, "direct", false, "Publish Bluesky, Mastodon and X accounts with local credentials")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print output as JSON")
	cmd.Flags().SortFlags = false

	return cmd
}

func previewPosts(out io.Writer, req postforme.PostRequest, asJSON bool) error {
	if err := validateLocal(req); err != nil {
		return err
	}
	posts, err := postforme.Resolve(req)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, posts)
	}
	renderPosts(out, posts)
	return nil
}

// validateLocal validates req before local media files are uploaded. Each local file must
// exist and stands in as an uploaded URL for the remaining checks.
func validateLocal(req postforme.PostRequest) error {
	var errs []error
	req.Media = lo.Map(req.Media, func(ref postforme.MediaRef, _ int) postforme.MediaRef {
		if media.IsRemote(ref.URL) {
			return ref
		}
		if _, err := os.Stat(ref.URL); err != nil {
			errs = append(errs, fmt.Errorf("media %s: %w", ref.URL, err))
		}
		return postforme.MediaRef{URL: "https://upload.invalid/" + url.PathEscape(filepath.Base(ref.URL))}
	})
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return req.Validate()
}

func publishViaAPI(ctx context.Context, req postforme.PostRequest, out io.Writer, asJSON bool) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	req.Media = slices.Clone(req.Media)
	for i, ref := range req.Media {
		if media.IsRemote(ref.URL) {
			continue
		}
		mediaURL, err := client.UploadFile(ctx, ref.URL)
		if err != nil {
			return fmt.Errorf("upload %s: %w", ref.URL, err)
		}
		req.Media[i].URL = mediaURL
	}

	created, err := client.CreatePost(ctx, req)
	if err != nil {
		return err
	}
	logutil.Infof("post %s created for %d account(s)", created.ID, len(req.SocialAccounts))

	if asJSON {
		return writeJSON(out, created)
	}
	renderSocialPost(out, created)
	return nil
}

// publishDirect resolves the request and hands every post to the publisher for its platform.
// One publisher is built per platform and shared by that platform's accounts.
func publishDirect(ctx context.Context, req postforme.PostRequest, factories map[postforme.Platform]publisherFactory, out io.Writer) error {
	if req.ScheduledAt != nil {
		return errors.New("--direct publishes immediately and cannot be combined with --schedule")
	}
	if err := validateLocal(req); err != nil {
		return err
	}
	posts, err := postforme.Resolve(req)
	if err != nil {
		return err
	}

	publishers, err := buildPublishers(ctx, posts, factories)
	if err != nil {
		return err
	}

	var errs []error
	for _, post := range posts {
		publisher := publishers[post.Account.Platform]
		if unknown := postforme.UnknownKeys(post); len(unknown) > 0 {
			logutil.Warnf("%s: ignoring settings %s does not support: %s", post.Account.ID, publisher.Name(), strings.Join(unknown, ", "))
		}
		fmt.Fprintf(out, "posting to %s (%s)...\n", post.Account.ID, publisher.Name())
		if err := publisher.Publish(ctx, post); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", post.Account.ID, err))
			continue
		}
		fmt.Fprintf(out, "posted to %s\n", post.Account.ID)
	}

	return errors.Join(errs...)
}

func buildPublishers(ctx context.Context, posts []postforme.EffectivePost, factories map[postforme.Platform]publisherFactory) (map[postforme.Platform]postforme.Publisher, error) {
	platforms := lo.Uniq(lo.Map(posts, func(p postforme.EffectivePost, _ int) postforme.Platform {
		return p.Account.Platform
	}))

	publishers := make(map[postforme.Platform]postforme.Publisher, len(platforms))
	var errs []error
	for _, platform := range platforms {
		factory, ok := factories[platform]
		if !ok {
			errs = append(errs, fmt.Errorf("platform %q cannot be published directly", platform))
			continue
		}
		publisher, err := factory(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", platform, err))
			continue
		}
		publishers[platform] = publisher
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return publishers, nil
}
