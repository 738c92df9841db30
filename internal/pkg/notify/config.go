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

package notify

const (
	DriverLog   = "log"
	DriverQueue = "queue"
)

// Conf 通知配置
type Conf struct {
	Driver    string `mapstructure:"driver"`    // log | queue
	Queue     string `mapstructure:"queue"`     // asynq 队列名
	MaxRetry  int    `mapstructure:"maxRetry"`  // 投递侧最大重试次数
	Retention int    `mapstructure:"retention"` // 完成后保留小时数，0 表示不保留
}

func (c *Conf) SetDefaults() {
	if c.Driver == "" {
		c.Driver = DriverLog
	}
	if c.Queue == "" {
		c.Queue = "notify"
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = 5
	}
}
