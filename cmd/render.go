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
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/blacktop/postforme/internal/logutil"
	"github.com/blacktop/postforme/internal/postforme"
	"github.com/blacktop/postforme/internal/postforme/api"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accountStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderPosts prints one block per resolved post, flagging keys the platform does not document.
func renderPosts(w io.Writer, posts []postforme.EffectivePost) {
	for i, post := range posts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", accountStyle.Render(post.Account.ID), labelStyle.Render("("+string(post.Account.Platform)+")"))
		fmt.Fprintf(w, "  %s %q\n", labelStyle.Render("caption:"), post.Caption)

		for _, m := range post.Media {
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("media:"), m.URL)
		}

		keys := make([]string, 0, len(post.ExtraFields))
		for key := range post.ExtraFields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "  %s %v\n", labelStyle.Render(key+":"), post.ExtraFields[key])
		}

		if unknown := postforme.UnknownKeys(post); len(unknown) > 0 {
			fmt.Fprintf(w, "  %s\n", warnStyle.Render("not documented for "+string(post.Account.Platform)+": "+strings.Join(unknown, ", ")))
			logutil.With("account", post.Account.ID).Debugf("undocumented keys: %s", strings.Join(unknown, ", "))
		}
	}
}

func renderAccounts(w io.Writer, accounts []api.SocialAccount) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, labelStyle.Render("no connected accounts"))
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "PLATFORM", "USERNAME", "STATUS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, a := range accounts {
		t.Row(a.ID, a.Platform, a.Username, a.Status)
	}
	fmt.Fprintln(w, t.Render())
}

func renderSocialPost(w io.Writer, post *api.SocialPost) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("id:"), accountStyle.Render(post.ID))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("status:"), post.Status)
	if post.ExternalID != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("external_id:"), post.ExternalID)
	}
	if post.ScheduledAt != nil {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("scheduled_at:"), post.ScheduledAt.Format(time.RFC3339))
	}
	if post.Caption != "" {
		fmt.Fprintf(w, "%s %q\n", labelStyle.Render("caption:"), post.Caption)
	}
}
