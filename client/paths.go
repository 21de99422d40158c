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

const (
	versionPath = "/v1/version"
	healthPath  = "/v1/health"

	createCollectionPath   = "/v1/collections/create"
	dropCollectionPath     = "/v1/collections/drop"
	hasCollectionPath      = "/v1/collections/has"
	describeCollectionPath = "/v1/collections/describe"
	listCollectionsPath    = "/v1/collections/list"
	loadCollectionPath     = "/v1/collections/load"
	releaseCollectionPath  = "/v1/collections/release"
	getLoadStatePath       = "/v1/collections/get_load_state"

	createIndexPath   = "/v1/indexes/create"
	describeIndexPath = "/v1/indexes/describe"
	dropIndexPath     = "/v1/indexes/drop"

	insertPath = "/v1/entities/insert"
	upsertPath = "/v1/entities/upsert"
	deletePath = "/v1/entities/delete"
	queryPath  = "/v1/entities/query"
	searchPath = "/v1/entities/search"
)
