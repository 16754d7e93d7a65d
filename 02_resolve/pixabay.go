package resolve

import (
	"context"
	"net/url"
)

type pixabaySearch struct {
	Hits []struct {
		Duration int `json:"duration"`
		Videos   struct {
			Large  pixabayVariant `json:"large"`
			Medium pixabayVariant `json:"medium"`
		} `json:"videos"`
	} `json:"hits"`
}

type pixabayVariant struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// pixabayVideo is the second stock provider, same aspect and length rules as
// the first.
func (r *Resolver) pixabayVideo(ctx context.Context, query, session string, index int) (string, error) {
	if r.pixabayKey == "" {
		return "", errNoResult
	}

	q := url.Values{}
	q.Set("key", r.pixabayKey)
	q.Set("q", query)
	q.Set("per_page", "15")

	var result pixabaySearch
	if err := r.apiGet(ctx, r.pixabayURL+"?"+q.Encode(), "", &result); err != nil {
		return "", err
	}

	portrait := r.render.Portrait()
	for _, hit := range result.Hits {
		if hit.Duration < 4 {
			continue
		}
		for _, v := range []pixabayVariant{hit.Videos.Large, hit.Videos.Medium} {
			if v.URL == "" || v.Width == 0 || v.Height == 0 {
				continue
			}
			if portrait != (v.Height > v.Width) {
				continue
			}
			path := r.st.ClipPath(session, index, "mp4")
			if err := r.download(ctx, r.httpClient, v.URL, path); err != nil {
				return "", err
			}
			return path, nil
		}
	}
	return "", errNoResult
}
