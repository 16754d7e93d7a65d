package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
)

type pexelsVideoSearch struct {
	Videos []struct {
		Width      int `json:"width"`
		Height     int `json:"height"`
		Duration   int `json:"duration"`
		VideoFiles []struct {
			Width   int    `json:"width"`
			Height  int    `json:"height"`
			Quality string `json:"quality"`
			Link    string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

type pexelsPhotoSearch struct {
	Photos []struct {
		Src struct {
			Large2x string `json:"large2x"`
			Large   string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// pexelsVideo searches stock footage matching the render orientation, keeps
// clips at least 4 seconds long with the right aspect, and picks one of the
// top three matches at random so repeated queries vary.
func (r *Resolver) pexelsVideo(ctx context.Context, query, session string, index int) (string, error) {
	if r.pexelsKey == "" {
		return "", errNoResult
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "15")
	q.Set("orientation", r.render.Orientation())

	var result pexelsVideoSearch
	if err := r.apiGet(ctx, r.pexelsVideoURL+"?"+q.Encode(), r.pexelsKey, &result); err != nil {
		return "", err
	}

	portrait := r.render.Portrait()
	var links []string
	for _, v := range result.Videos {
		if v.Duration < 4 {
			continue
		}
		if portrait != (v.Height > v.Width) {
			continue
		}
		best := ""
		bestW := 0
		for _, f := range v.VideoFiles {
			if portrait != (f.Height > f.Width) {
				continue
			}
			if f.Width > bestW {
				bestW = f.Width
				best = f.Link
			}
		}
		if best != "" {
			links = append(links, best)
		}
		if len(links) >= 3 {
			break
		}
	}
	if len(links) == 0 {
		return "", errNoResult
	}

	path := r.st.ClipPath(session, index, "mp4")
	if err := r.download(ctx, r.httpClient, links[rand.Intn(len(links))], path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Resolver) pexelsPhoto(ctx context.Context, query, session string, index int) (string, error) {
	if r.pexelsKey == "" {
		return "", errNoResult
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "5")
	q.Set("orientation", r.render.Orientation())

	var result pexelsPhotoSearch
	if err := r.apiGet(ctx, r.pexelsPhotoURL+"?"+q.Encode(), r.pexelsKey, &result); err != nil {
		return "", err
	}
	if len(result.Photos) == 0 {
		return "", errNoResult
	}

	src := result.Photos[0].Src.Large2x
	if src == "" {
		src = result.Photos[0].Src.Large
	}
	if src == "" {
		return "", errNoResult
	}

	path := r.st.ClipPath(session, index, "jpg")
	if err := r.download(ctx, r.httpClient, src, path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *Resolver) apiGet(ctx context.Context, rawURL, auth string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api %s: status %d", req.URL.Host, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
