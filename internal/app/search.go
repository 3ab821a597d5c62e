package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"photoshare/pkg/ai"
	"photoshare/pkg/domain"
)

// searchContextLimit caps how many of the caller's photos are serialized into
// the model prompt. Only the newest photos are considered.
const searchContextLimit = 50

const searchSystemPrompt = `You are a photo gallery search assistant. The user message contains a JSON array of the user's photos, each with an "id" and a "desc" field, followed by the user's question. Answer the question using only those photos. Respond with a single JSON object of the form {"answer": "<natural language answer>", "photo_ids": [<matching photo ids>]}. Include a photo id only when that photo is relevant to the question. Do not invent ids. Respond with JSON only, no surrounding text.`

// SearchResult is the outcome of an AI-assisted photo search.
type SearchResult struct {
	Answer string         `json:"answer"`
	Photos []domain.Photo `json:"photos"`
}

type searchContextEntry struct {
	ID   uint   `json:"id"`
	Desc string `json:"desc"`
}

type modelSearchReply struct {
	Answer   string `json:"answer"`
	PhotoIDs []uint `json:"photo_ids"`
}

// ChatSearch answers a natural language question about the caller's photos.
// The caller may supply a per-request API key which takes precedence over the
// configured one; with neither, the operation fails before touching the
// store. The model's reply is treated as untrusted: photo ids it returns are
// refetched scoped to the caller, so ids belonging to other users are
// silently dropped, and a reply that is not valid JSON degrades to a plain
// text answer with no photos.
func (a *App) ChatSearch(ctx context.Context, userID uint, query, apiKeyOverride string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, ErrQueryRequired
	}

	key := apiKeyOverride
	if key == "" {
		key = a.aiAPIKey
	}
	gen := a.generator
	if gen == nil {
		if key == "" {
			return SearchResult{}, ErrAIUnavailable
		}
		gen = ai.NewOpenAICompatGenerator(a.aiBaseURL, key, a.aiModel, a.aiTimeout).WithJSONMode()
	}

	photos, err := a.store.ListRecentByOwner(userID, searchContextLimit)
	if err != nil {
		return SearchResult{}, fmt.Errorf("load photo context: %w", err)
	}

	entries := make([]searchContextEntry, 0, len(photos))
	for _, p := range photos {
		entries = append(entries, searchContextEntry{ID: p.ID, Desc: describePhoto(p)})
	}
	contextJSON, err := json.Marshal(entries)
	if err != nil {
		return SearchResult{}, fmt.Errorf("encode photo context: %w", err)
	}

	userPrompt := fmt.Sprintf("Photos:\n%s\n\nQuestion: %s", contextJSON, query)

	genCtx, cancel := context.WithTimeout(ctx, a.aiTimeout)
	defer cancel()
	raw, err := gen.GenerateText(genCtx, searchSystemPrompt, userPrompt)
	if err != nil {
		return SearchResult{}, fmt.Errorf("generate search answer: %w", err)
	}

	reply, ok := parseSearchReply(raw)
	if !ok {
		a.logger.Warn("search reply was not valid JSON, returning raw text", "userId", userID)
		return SearchResult{Answer: strings.TrimSpace(raw), Photos: []domain.Photo{}}, nil
	}

	matched := []domain.Photo{}
	if len(reply.PhotoIDs) > 0 {
		matched, err = a.store.GetPhotosByIDs(userID, reply.PhotoIDs)
		if err != nil {
			return SearchResult{}, fmt.Errorf("load matched photos: %w", err)
		}
		if matched == nil {
			matched = []domain.Photo{}
		}
	}
	return SearchResult{Answer: reply.Answer, Photos: matched}, nil
}

// describePhoto renders one photo as a compact context line for the model.
func describePhoto(p domain.Photo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s", p.Title)
	if p.Description != "" {
		fmt.Fprintf(&b, ", Desc: %s", p.Description)
	}
	if len(p.Tags) > 0 {
		names := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			names[i] = t.Name
		}
		fmt.Fprintf(&b, ", Tags: %s", strings.Join(names, " "))
	}
	if p.CapturedAt != nil {
		fmt.Fprintf(&b, ", Date: %s", p.CapturedAt.Format(time.DateOnly))
	}
	if p.CaptureLocation != "" {
		fmt.Fprintf(&b, ", Loc: %s", p.CaptureLocation)
	}
	return b.String()
}

// parseSearchReply extracts the structured reply, tolerating markdown code
// fences around the JSON.
func parseSearchReply(raw string) (modelSearchReply, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	var reply modelSearchReply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return modelSearchReply{}, false
	}
	return reply, true
}
