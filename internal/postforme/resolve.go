package postforme

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const captionKey = "caption"

// Resolve computes the effective content for every account listed in the request.
//
// Account-level configuration wins over platform-level configuration, which wins over the
// top-level caption. Keys merge shallowly: a key set at a higher level replaces the whole value
// from a lower level, while unrelated keys from both levels survive. Media always comes from the
// top-level list; filtering by platform support happens server-side.
//
// Duplicate account ids are collapsed onto their first occurrence. An empty social_accounts list
// and account configurations that name an account missing from it are rejected. Platform
// configuration keys match case-insensitively. On any error no posts are returned.
func Resolve(req PostRequest) ([]EffectivePost, error) {
	accountIDs := lo.Uniq(req.SocialAccounts)
	if len(accountIDs) == 0 {
		return nil, ValidationError{Provider: providerName, Reason: "social_accounts is required"}
	}

	var errs []error
	refs := make([]AccountRef, 0, len(accountIDs))
	for _, id := range accountIDs {
		ref, err := ParseAccountRef(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		refs = append(refs, ref)
	}

	overrides := make(map[string][]Configuration, len(req.AccountConfigurations))
	for i, ac := range req.AccountConfigurations {
		if ac.SocialAccountID == "" || !slices.Contains(accountIDs, ac.SocialAccountID) {
			errs = append(errs, InvalidReferenceError{Index: i, AccountID: ac.SocialAccountID})
			continue
		}
		overrides[ac.SocialAccountID] = append(overrides[ac.SocialAccountID], ac.Configuration)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	posts := make([]EffectivePost, 0, len(refs))
	for _, ref := range refs {
		post := EffectivePost{
			Account:     ref,
			Caption:     req.Caption,
			Media:       slices.Clone(req.Media),
			ExtraFields: Configuration{},
		}
		if post.Media == nil {
			post.Media = []MediaRef{}
		}

		if cfg, ok := platformConfig(req.PlatformConfigurations, ref.Platform); ok {
			post.apply(cfg)
		}
		for _, cfg := range overrides[ref.ID] {
			post.apply(cfg)
		}

		posts = append(posts, post)
	}

	return posts, nil
}

// platformConfig looks up a platform's configuration. An exact key wins; otherwise keys are
// compared case-insensitively in sorted order.
func platformConfig(configs map[string]Configuration, platform Platform) (Configuration, bool) {
	if cfg, ok := configs[string(platform)]; ok {
		return cfg, true
	}
	keys := lo.Keys(configs)
	sort.Strings(keys)
	for _, key := range keys {
		if strings.EqualFold(strings.TrimSpace(key), string(platform)) {
			return configs[key], true
		}
	}
	return nil, false
}

func (p *EffectivePost) apply(cfg Configuration) {
	for key, value := range cfg {
		if key != captionKey {
			p.ExtraFields[key] = value
			continue
		}
		switch caption := value.(type) {
		case nil:
			// an explicit null leaves the lower level in place
		case string:
			p.Caption = caption
		default:
			p.Caption = fmt.Sprint(caption)
		}
	}
}
