package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"fpledger/internal/models"
	"fpledger/internal/policy"
	"fpledger/internal/providers"
	"fpledger/internal/services"
	"fpledger/internal/structures"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
)

type ApiController struct {
	logger         providers.Logger
	service        services.LedgerServiceInterface
	cache          providers.CacheProviderInterface
	authorizer     policy.Authorizer
	protectLookups bool
	errors         errorWriter
}

type recordResponse struct {
	Status string                    `json:"status"`
	Record *models.FingerprintRecord `json:"record"`
}

type listResponse struct {
	Records    []policy.ListEntry `json:"records"`
	Pagination policy.Pagination  `json:"pagination"`
	Privileged bool               `json:"privileged"`
}

func NewApiController(conf *structures.Config, logger providers.Logger, service services.LedgerServiceInterface, cache providers.CacheProviderInterface, authorizer policy.Authorizer) *ApiController {
	if conf.Access.ProtectLookups && conf.Access.APIKey == "" {
		logger.Warnf(providers.TypeApp, "access.protectLookups is on but access.apiKey is empty: every hash and id lookup will return 401")
	}
	return &ApiController{
		logger:         logger,
		service:        service,
		cache:          cache,
		authorizer:     authorizer,
		protectLookups: conf.Access.ProtectLookups,
		errors:         errorWriter{logger: logger, debug: conf.Debug},
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	data, generation, ok := ac.cache.Get(cacheKey)
	if ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.errors.fail(w, r, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.errors.fail(w, r, err)
		return
	}

	ac.cache.Set(generation, cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

func (ac *ApiController) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ac.errors.write(w, r, http.StatusRequestEntityTooLarge, errorBody{Code: CodeValidationFailed, Message: "request body exceeds 1 MB"})
			return
		}
		ac.errors.write(w, r, http.StatusBadRequest, errorBody{Code: CodeValidationFailed, Message: "request body could not be read"})
		return
	}

	var payload models.RecordTransactionInput
	if err := json.Unmarshal(body, &payload); err != nil {
		ac.errors.write(w, r, http.StatusBadRequest, errorBody{Code: CodeValidationFailed, Message: "request body must be a JSON object"})
		return
	}

	record, created, err := ac.service.RecordTransaction(r.Context(), &payload)
	if err != nil {
		ac.errors.fail(w, r, err)
		return
	}

	status, label := http.StatusOK, StatusUpdated
	if created {
		status, label = http.StatusCreated, StatusCreated
	}
	marshalAndWrite(w, status, recordResponse{Status: label, Record: record})
}

func (ac *ApiController) ListFingerprints(w http.ResponseWriter, r *http.Request) {
	query, err := models.ParseListQuery(r.URL.Query())
	if err != nil {
		ac.errors.fail(w, r, err)
		return
	}
	privileged := ac.authorizer.IsPrivileged(r)

	cacheKey := "list:" + strconv.FormatBool(privileged) + ":" + query.CacheKey()
	ac.serveFromCacheOrCompute(w, r, cacheKey, func() (any, error) {
		records, total, err := ac.service.List(r.Context(), query)
		if err != nil {
			return nil, err
		}
		return listResponse{
			Records:    policy.ShapeList(records, privileged),
			Pagination: policy.NewPagination(query.Page, query.PageSize, total),
			Privileged: privileged,
		}, nil
	})
}

// authorizeLookup enforces access.protectLookups on single-record endpoints.
func (ac *ApiController) authorizeLookup(w http.ResponseWriter, r *http.Request) bool {
	if !ac.protectLookups || ac.authorizer.IsPrivileged(r) {
		return true
	}
	ac.errors.write(w, r, http.StatusUnauthorized, errorBody{Code: CodeUnauthorized, Message: "a valid API key is required"})
	return false
}

func (ac *ApiController) GetByHash(w http.ResponseWriter, r *http.Request) {
	if !ac.authorizeLookup(w, r) {
		return
	}
	hash := r.PathValue("hash")
	ac.serveFromCacheOrCompute(w, r, "hash:"+hash, func() (any, error) {
		return ac.service.GetByHash(r.Context(), hash)
	})
}

func (ac *ApiController) GetByID(w http.ResponseWriter, r *http.Request) {
	if !ac.authorizeLookup(w, r) {
		return
	}
	id := r.PathValue("fingerprintId")
	ac.serveFromCacheOrCompute(w, r, "id:"+id, func() (any, error) {
		return ac.service.GetByID(r.Context(), id)
	})
}
