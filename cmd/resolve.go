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
	"time"

	"github.com/spf13/cobra"
)

func newResolveCommand() *cobra.Command {
	var (
		flags  requestFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [caption]",
		Short: "Show the caption, media and settings each account would receive",
		Long: "resolve applies platform and account overrides locally and prints one post per account. " +
			"Nothing is sent to the API.",
		Example: `  postforme resolve -f post.yaml
  postforme resolve "hi" -a sa_x-1 -a sa_bluesky-2 --platform-config x.caption="hi X" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(cmd, args, time.Now())
			if err != nil {
				return err
			}
			return previewPosts(cmd.OutOrStdout(), req, asJSON)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resolved posts as JSON")
	cmd.Flags().SortFlags = false

	return cmd
}
