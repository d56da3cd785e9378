package racing

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// nextRacesResponse is the wire shape of GET /races/next.
type nextRacesResponse struct {
	Races       []raceView `json:"races"`
	GeneratedAt time.Time  `json:"generated_at"`
}

type raceView struct {
	ID              uuid.UUID `json:"race_id"`
	Name            string    `json:"race_name"`
	Number          int       `json:"race_number"`
	MeetingID       uuid.UUID `json:"meeting_id"`
	MeetingName     string    `json:"meeting_name"`
	CategoryID      uuid.UUID `json:"category_id"`
	AdvertisedStart time.Time `json:"advertised_start"`
	StartsInSeconds int64     `json:"starts_in_seconds"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler exposes the store over HTTP:
//
//	GET /races/next?count=5&category=horse&category=greyhound
//
// category accepts well-known names or raw category UUIDs and may repeat;
// invalid parameters yield 400, upstream failure 502.
func NewHandler(store *Store, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /races/next", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		count := 0
		if raw := query.Get("count"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "count must be a positive integer"})
				return
			}
			count = parsed
		}

		var categories []uuid.UUID
		for _, raw := range query["category"] {
			id, err := ParseCategory(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			categories = append(categories, id)
		}

		races, err := store.Next(r.Context(), count, categories...)
		if err != nil {
			if errors.Is(err, r.Context().Err()) && r.Context().Err() != nil {
				// Client went away; nothing useful to write.
				return
			}
			logger.Error("next races lookup failed", "error", err)
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "race data temporarily unavailable"})
			return
		}

		now := time.Now()
		views := make([]raceView, 0, len(races))
		for _, race := range races {
			views = append(views, raceView{
				ID:              race.ID,
				Name:            race.Name,
				Number:          race.Number,
				MeetingID:       race.MeetingID,
				MeetingName:     race.MeetingName,
				CategoryID:      race.CategoryID,
				AdvertisedStart: race.AdvertisedStart,
				StartsInSeconds: int64(race.CountdownTo(now).Seconds()),
			})
		}

		writeJSON(w, http.StatusOK, nextRacesResponse{
			Races:       views,
			GeneratedAt: now.UTC(),
		})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
