package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/relaymesh/relay/internal/config"
)

// proxyChat forwards the chat turn to an independently-deployed agent. The
// upstream owns its own tool wiring; the gateway only fronts auth and
// routing for it.
func (s *Service) proxyChat(w http.ResponseWriter, r *http.Request, agentDef config.AgentDef) {
	upstream, err := url.Parse(agentDef.UpstreamURL)
	if err != nil {
		s.logger.Error("bad upstream url", "agent", agentDef.Name, "error", err)
		writeError(w, http.StatusBadGateway, "agent upstream misconfigured")
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error("upstream proxy failed", "agent", agentDef.Name, "error", err)
		writeError(w, http.StatusBadGateway, "agent upstream unavailable")
	}
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = upstream.Host
		// The gateway token must not leak to upstream deployments.
		req.Header.Del("Authorization")
	}
	proxy.ServeHTTP(w, r)
}
