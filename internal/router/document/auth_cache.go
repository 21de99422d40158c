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

package document

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/vearch/vdbclient/internal/router/document/resp"
	"github.com/vearch/vdbclient/proto/fault"
)

const (
	authCacheTTL     = 10 * time.Minute
	authCacheCleanup = 20 * time.Minute

	headerAuthBasic = "Basic "
)

// AuthCache remembers Authorization headers that already passed the credential check.
// Failed attempts are never cached.
type AuthCache struct {
	user     string
	password string
	verified *cache.Cache
}

func NewAuthCache(user, password string) *AuthCache {
	return &AuthCache{
		user:     user,
		password: password,
		verified: cache.New(authCacheTTL, authCacheCleanup),
	}
}

// Check returns the user name of a valid header.
func (ac *AuthCache) Check(header string) (string, error) {
	if header == "" {
		return "", fault.Authentication(resp.ErrReasonAuthCodeNotFound)
	}
	if user, found := ac.verified.Get(header); found {
		metrics.RecordCacheLookup("auth", true)
		return user.(string), nil
	}
	metrics.RecordCacheLookup("auth", false)

	user, password, err := authDecrypt(header)
	if err != nil {
		return "", fault.Authentication(fmt.Sprintf(resp.ErrReasonAuthDecryptFailed, err.Error()))
	}
	if user != ac.user || password != ac.password {
		return "", fault.Authentication(resp.ErrReasonAuthFailed)
	}
	ac.verified.SetDefault(header, user)
	return user, nil
}

func (ac *AuthCache) Invalidate() {
	ac.verified.Flush()
}

func (ac *AuthCache) Len() int {
	return ac.verified.ItemCount()
}

func authDecrypt(header string) (userName, password string, err error) {
	if !strings.HasPrefix(header, headerAuthBasic) {
		return "", "", fmt.Errorf("unsupported scheme")
	}
	dataByte, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, headerAuthBasic))
	if err != nil {
		return "", "", err
	}
	userName, password, ok := strings.Cut(string(dataByte), ":")
	if !ok {
		return "", "", fmt.Errorf("auth data has no separator")
	}
	return userName, password, nil
}

func AuthEncrypt(userName, password string) string {
	return headerAuthBasic + base64.StdEncoding.EncodeToString([]byte(userName+":"+password))
}
