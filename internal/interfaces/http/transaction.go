package http

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"budgetmint/internal/domain/transaction"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

type TransactionHandler struct {
	transactionService *transaction.Service
	logger             logrus.FieldLogger
}

func NewTransactionHandler(transactionService *transaction.Service, logger logrus.FieldLogger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: logger.WithField("handler", "transactions")}
}

// TransactionResponse adds the resolved display category to the stored record.
type TransactionResponse struct {
	*transaction.Transaction
	DisplayCategory string `json:"displayCategory"`
	CategoryLabel   string `json:"categoryLabel"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// HandleListTransactions handles GET /api/transactions?accountId=&limit=&offset=
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit := defaultTransactionLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = min(v, maxTransactionLimit)
	}
	offset := 0
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	txns, err := h.transactionService.ListTransactions(r.Context(), userID, q.Get("accountId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	total := len(txns)
	start := min(offset, total)
	end := min(start+limit, total)

	resp := TransactionListResponse{
		Transactions: make([]TransactionResponse, 0, end-start),
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}
	for _, t := range txns[start:end] {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSummary handles GET /api/transactions/summary
func (h *TransactionHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.transactionService.Summarize(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleUpdateOverlay handles PATCH /api/transactions/{id}
func (h *TransactionHandler) HandleUpdateOverlay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch transaction.OverlayPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	txn, err := h.transactionService.UpdateOverlay(r.Context(), userID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// HandleCategories handles GET /api/transactions/categories
func (h *TransactionHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats := make([]transaction.Category, 0, len(transaction.CategoryMapping))
	for _, c := range transaction.CategoryMapping {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].DisplayName < cats[j].DisplayName })
	writeJSON(w, http.StatusOK, cats)
}

func toTransactionResponse(t *transaction.Transaction) TransactionResponse {
	display := t.DisplayCategory()
	return TransactionResponse{
		Transaction:     t,
		DisplayCategory: display,
		CategoryLabel:   transaction.CategoryLabel(display),
	}
}
