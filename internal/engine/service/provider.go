// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/service/job"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/google/wire"
)

// ProviderSet 提供服务层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideOptions,
	ProvideServices,
)

// ProvideOptions 决策窗口与定时任务共用同一个宽限期
func ProvideOptions(conf job.Conf) (Options, error) {
	grace, err := conf.Grace()
	if err != nil {
		return Options{}, err
	}
	return Options{GracePeriod: grace}, nil
}

// ProvideServices 提供统一的 Services 实例
func ProvideServices(repos *repo.Repositories, notifier notify.Notifier, opts Options) *Services {
	return NewServices(repos, notifier, opts)
}
