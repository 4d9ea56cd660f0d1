package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite carries the HTTP and websocket plumbing shared by the
// scenarios. Scenarios only run against a deployed gateway; without
// SERVER_ADDR the whole suite skips.
type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

func (s *BaseSuite) SetupSuite() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	if cfg.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e scenarios")
	}
	s.Config = cfg
	s.client = &http.Client{Timeout: 10 * time.Second}
}

func (s *BaseSuite) PostJSON(path, token string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf(">>> POST %s %s", path, payload)
	}
	request, err := http.NewRequest(http.MethodPost, s.Config.ServerAddr+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := s.client.Do(request)
	s.Require().NoError(err)
	return response
}

func (s *BaseSuite) Decode(response *http.Response, out any) {
	defer response.Body.Close()
	s.Require().NoError(json.NewDecoder(response.Body).Decode(out))
	if s.Config.DebugJSON {
		s.T().Logf("<<< %d %+v", response.StatusCode, out)
	}
}

func (s *BaseSuite) DialSocket(token, conversationID string) *websocket.Conn {
	wsAddr := "ws" + strings.TrimPrefix(s.Config.ServerAddr, "http")
	url := fmt.Sprintf("%s/ws?token=%s", wsAddr, token)
	if conversationID != "" {
		url += "&conversationId=" + conversationID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	return conn
}
