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

package client

import (
	"context"
	"errors"
	"time"

	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
	"github.com/vearch/vdbclient/proto/fault"
)

// CreateCollection validates schema locally before any round trip. A non empty level
// overrides the default consistency level of the schema.
func (c *Client) CreateCollection(ctx context.Context, schema *entity.CollectionSchema, level entity.ConsistencyLevel) error {
	if schema == nil {
		return fault.SchemaError("schema is required")
	}
	s := *schema
	if level != entity.ConsistencyUnset {
		s.ConsistencyLevel = level
	}
	if err := s.Validate(); err != nil {
		return err
	}
	return c.post(ctx, createCollectionPath, &entity.CreateCollectionRequest{Schema: &s}, nil)
}

func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	has := &entity.HasResult{}
	if err := c.post(ctx, hasCollectionPath, &entity.CollectionRequest{CollectionName: name}, has); err != nil {
		return false, err
	}
	return has.Has, nil
}

func (c *Client) DescribeCollection(ctx context.Context, name string) (*entity.CollectionInfo, error) {
	info := &entity.CollectionInfo{}
	if err := c.post(ctx, describeCollectionPath, &entity.CollectionRequest{CollectionName: name}, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	list := &entity.ListCollectionsResult{}
	if err := c.post(ctx, listCollectionsPath, struct{}{}, list); err != nil {
		return nil, err
	}
	return list.Collections, nil
}

// DropCollection fails with CollectionNotFound when name does not exist.
func (c *Client) DropCollection(ctx context.Context, name string) error {
	return c.post(ctx, dropCollectionPath, &entity.CollectionRequest{CollectionName: name}, nil)
}

// DropCollectionIfExists is the idempotent teardown: it reports whether a collection was
// dropped and only fails for errors other than not found.
func (c *Client) DropCollectionIfExists(ctx context.Context, name string) (bool, error) {
	err := c.DropCollection(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case fault.IsNotFound(err):
		log.Info("collection:[%s] does not exist, nothing to drop", name)
		return false, nil
	default:
		return false, err
	}
}

// LoadCollection asks the server to load and polls the load state until it is loaded. It
// gives up with Timeout after the configured load timeout or when ctx is done.
func (c *Client) LoadCollection(ctx context.Context, name string, replicaNumber int) error {
	if replicaNumber < 0 {
		return fault.InvalidParam("replica number:[%d] can not be negative", replicaNumber)
	}
	req := &entity.LoadCollectionRequest{CollectionName: name, ReplicaNumber: replicaNumber}
	if err := c.post(ctx, loadCollectionPath, req, nil); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.LoadTimeout)
	defer cancel()
	ticker := time.NewTicker(c.cfg.LoadPollInterval)
	defer ticker.Stop()

	for {
		state, progress, err := c.GetLoadState(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return loadTimeout(ctx, name, err)
			}
			return err
		}
		switch state {
		case entity.LoadStateLoaded:
			log.Debug("collection:[%s] loaded", name)
			return nil
		case entity.LoadStateNotLoad, entity.LoadStateNotExist:
			return fault.Conflict("load of collection %s was interrupted, state is %s", name, state)
		}
		log.Debug("collection:[%s] loading, progress:[%d%%]", name, progress)

		select {
		case <-ctx.Done():
			return loadTimeout(ctx, name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func loadTimeout(ctx context.Context, name string, cause error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fault.Wrapf(fault.ErrTimeout, cause, "load collection %s canceled", name)
	}
	return fault.Wrapf(fault.ErrTimeout, cause, "load collection %s not finished in time", name)
}

// GetLoadState returns the load state and the load progress in percent.
func (c *Client) GetLoadState(ctx context.Context, name string) (entity.LoadState, int, error) {
	info := &entity.LoadStateInfo{}
	if err := c.post(ctx, getLoadStatePath, &entity.CollectionRequest{CollectionName: name}, info); err != nil {
		return entity.LoadStateNotExist, 0, err
	}
	return info.State, info.Progress, nil
}

func (c *Client) ReleaseCollection(ctx context.Context, name string) error {
	return c.post(ctx, releaseCollectionPath, &entity.CollectionRequest{CollectionName: name}, nil)
}
