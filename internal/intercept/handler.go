// Package intercept is the boundary with the TLS interception engine. It
// classifies each decrypted request and either synthesizes a response or
// lets the request through untouched.
package intercept

import (
	"net/http"
	"runtime/debug"

	"github.com/elazarl/goproxy"
	"github.com/gagliardetto/solana-go"
	"github.com/hunterwarburton/walletproxy/internal/logger"
	"github.com/hunterwarburton/walletproxy/internal/portfolio"
	"github.com/hunterwarburton/walletproxy/internal/routing"
	"github.com/hunterwarburton/walletproxy/internal/rpcproxy"
	"github.com/hunterwarburton/walletproxy/internal/tokenlist"
)

// Deps are the handlers a request can be dispatched to.
type Deps struct {
	Classifier  *routing.Classifier
	Forwarder   *rpcproxy.Forwarder
	Synthesizer *portfolio.Synthesizer
	Resolver    *tokenlist.Resolver
}

// Handler dispatches intercepted requests. It holds no mutable state and is
// safe for concurrent use.
type Handler struct {
	classifier  *routing.Classifier
	forwarder   *rpcproxy.Forwarder
	synthesizer *portfolio.Synthesizer
	resolver    *tokenlist.Resolver
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		classifier:  deps.Classifier,
		forwarder:   deps.Forwarder,
		synthesizer: deps.Synthesizer,
		resolver:    deps.Resolver,
	}
}

// OnRequest is the goproxy request hook.
func (h *Handler) OnRequest(req *http.Request, _ *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	return req, h.Handle(req)
}

// Handle returns the synthesized response for req, or nil if req should be
// passed through to its original destination. A panic while handling one
// request is turned into a 500 for that request only.
func (h *Handler) Handle(req *http.Request) (resp *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling %s %s: %v\n%s", req.Method, req.URL.Redacted(), r, debug.Stack())
			resp = errorResponse(req, http.StatusInternalServerError, "internal error")
		}
	}()

	route := h.classifier.Classify(req.Method, req.URL)
	switch route.Kind {
	case routing.RPCForward:
		return h.forwardRPC(req)
	case routing.PortfolioQuery:
		return h.portfolioTokens(req, route.Address)
	case routing.TokenListLookup:
		return h.lookupMints(req)
	default:
		return nil
	}
}

func (h *Handler) forwardRPC(req *http.Request) *http.Response {
	res, err := h.forwarder.Forward(req.Context(), req)
	if err != nil {
		logger.Error("RPC forward of %s failed: %v", req.URL.Redacted(), err)
		return errorResponse(req, http.StatusBadGateway, "upstream RPC request failed")
	}
	return newResponse(req, res.StatusCode, res.ContentType, res.Body)
}

func (h *Handler) portfolioTokens(req *http.Request, address string) *http.Response {
	// The classifier has already validated the address.
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		logger.Warn("Invalid wallet address %q, passing through: %v", address, err)
		return nil
	}
	logger.Info("Synthesizing portfolio for %s", owner)
	return jsonResponse(req, http.StatusOK, h.synthesizer.Tokens(req.Context(), owner))
}

func (h *Handler) lookupMints(req *http.Request) *http.Response {
	if req.Method != http.MethodPost {
		return nil
	}
	if req.Body == nil {
		return errorResponse(req, http.StatusBadRequest, tokenlist.ErrMalformedQuery.Error())
	}

	q, err := tokenlist.DecodeQuery(req.Body)
	if err != nil {
		logger.Warn("Rejecting token list request: %v", err)
		return errorResponse(req, http.StatusBadRequest, tokenlist.ErrMalformedQuery.Error())
	}

	res := h.resolver.Resolve(q)
	logger.Debug("Token list lookup: %d requested, %d found", len(q.Addresses), len(res.Content))
	return jsonResponse(req, http.StatusOK, res)
}
