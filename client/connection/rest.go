// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package connection

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/vearch/vdbclient/internal/pkg/vjson"
	"github.com/vearch/vdbclient/proto/fault"
)

// Connection is one transport session to the server. It is safe for concurrent use but the
// client serialises its calls.
type Connection struct {
	basePath   string
	httpClient *http.Client
	headers    map[string]string
}

func NewConnection(host string, httpClient *http.Client, headers map[string]string) *Connection {
	client := httpClient
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &Connection{
		basePath:   host,
		httpClient: client,
		headers:    headers,
	}
}

// BasicAuth builds the Authorization header value for user and password.
func BasicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

func (con *Connection) BasePath() string {
	return con.basePath
}

// Close drops idle keep-alive connections of the session.
func (con *Connection) Close() {
	con.httpClient.CloseIdleConnections()
}

func (con *Connection) addHeaderToRequest(request *http.Request) {
	for k, v := range con.headers {
		request.Header.Add(k, v)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
}

func (con *Connection) marshalBody(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	jsonBody, err := vjson.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(jsonBody), nil
}

func (con *Connection) createRequest(ctx context.Context, path string, restMethod string, body interface{}) (*http.Request, error) {
	jsonBody, err := con.marshalBody(body)
	if err != nil {
		return nil, fault.Wrapf(fault.ErrInvalidParam, err, "encode request of %s", path)
	}

	request, err := http.NewRequestWithContext(ctx, restMethod, con.basePath+path, jsonBody)
	if err != nil {
		return nil, fault.Wrapf(fault.ErrInvalidParam, err, "build request of %s", path)
	}
	con.addHeaderToRequest(request)
	return request, nil
}

// RunREST sends one request. Transport failures come back as Timeout or ConnectionError,
// the reply itself is checked by CheckReply.
func (con *Connection) RunREST(ctx context.Context, path string, restMethod string, requestBody interface{}) (*ResponseData, error) {
	request, err := con.createRequest(ctx, path, restMethod, requestBody)
	if err != nil {
		return nil, err
	}
	response, err := con.httpClient.Do(request)
	if err != nil {
		return nil, transportError(ctx, path, err)
	}

	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, transportError(ctx, path, err)
	}

	return &ResponseData{
		Body:       body,
		StatusCode: response.StatusCode,
	}, nil
}

func transportError(ctx context.Context, path string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fault.Wrapf(fault.ErrTimeout, err, "operation timeout: %s", path)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fault.Wrapf(fault.ErrTimeout, err, "operation timeout: %s", path)
	}
	return fault.Connection(err, "request %s failed", path)
}

type ResponseData struct {
	Body       []byte
	StatusCode int
}
