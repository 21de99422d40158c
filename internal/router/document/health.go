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
	"fmt"

	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
	"github.com/vearch/vdbclient/internal/config"
	"github.com/vearch/vdbclient/internal/pkg/log"
	"github.com/vearch/vdbclient/proto/entity"
)

// healthInfo combines the engine state with host resource usage. A probe that fails is
// logged and skipped, it does not make the server unhealthy.
func (handler *DocumentHandler) healthInfo() *entity.HealthInfo {
	reasons := handler.engine.Health()
	reasons = append(reasons, resourceReasons(handler.conf)...)
	return &entity.HealthInfo{Healthy: len(reasons) == 0, Reasons: reasons}
}

func resourceReasons(conf *config.Config) []string {
	var reasons []string

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Warn("read memory usage failed, err:[%v]", err)
	} else if vm.UsedPercent > conf.Server.MemUsedPercentLimit {
		reasons = append(reasons, fmt.Sprintf("memory used %.1f%% is over the limit %.1f%%", vm.UsedPercent, conf.Server.MemUsedPercentLimit))
	}

	if conf.Server.Storage != config.StorageSQLite {
		return reasons
	}
	if du, err := disk.Usage(conf.Global.Data); err != nil {
		log.Warn("read disk usage of [%s] failed, err:[%v]", conf.Global.Data, err)
	} else if du.UsedPercent > conf.Server.DiskUsedPercentLimit {
		reasons = append(reasons, fmt.Sprintf("disk used %.1f%% of %s is over the limit %.1f%%", du.UsedPercent, conf.Global.Data, conf.Server.DiskUsedPercentLimit))
	}
	return reasons
}
