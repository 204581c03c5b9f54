package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/cardshop-system/internal/model"
	"github.com/mmeshcher/cardshop-system/internal/repository"
)

// parseCardFilter собирает фильтр каталога из query-параметров запроса.
func parseCardFilter(r *http.Request) (repository.CardFilter, error) {
	q := r.URL.Query()
	f := repository.CardFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Page:   1,
		Limit:  20,
	}

	if c := q.Get("category"); c != "" {
		if !model.ValidCategory(model.CardCategory(c)) {
			return f, errors.New("unknown category")
		}
		f.Category = model.CardCategory(c)
	}
	if v := q.Get("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return f, errors.New("invalid min_price")
		}
		min := paise(p)
		f.MinPrice = &min
	}
	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			return f, errors.New("invalid max_price")
		}
		max := paise(p)
		f.MaxPrice = &max
	}
	if v := q.Get("popular"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid popular")
		}
		f.Popular = &b
	}
	if v := q.Get("trending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid trending")
		}
		f.Trending = &b
	}
	if v := q.Get("wholesale"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("invalid wholesale")
		}
		f.Wholesale = &b
	}
	if v := q.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return f, errors.New("invalid page")
		}
		f.Page = p
	}
	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 100 {
			return f, errors.New("invalid limit")
		}
		f.Limit = l
	}

	return f, nil
}

// ListCards возвращает страницу каталога с учётом фильтров и сортировки.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCardFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cards, total, err := h.service.ListCards(r.Context(), filter)
	if err != nil {
		h.serverError(w, "list cards error", err)
		return
	}

	items := make([]cardResponse, 0, len(cards))
	for i := range cards {
		items = append(items, toCardResponse(&cards[i]))
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"cards": items,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// GetCard возвращает одну открытку каталога по идентификатору.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cardID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid card id", http.StatusBadRequest)
		return
	}

	card, err := h.service.GetCard(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			http.Error(w, "card not found", http.StatusNotFound)
			return
		}
		h.serverError(w, "get card error", err)
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}
