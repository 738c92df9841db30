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

package rdb

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-arcade/huddle/pkg/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet 提供 Redis 客户端
var ProviderSet = wire.NewSet(ProvideRedis)

const (
	ModeSingle   = "single"
	ModeSentinel = "sentinel"
)

// ProvideRedis 提供 Redis 实例，返回关闭函数；未配置地址时返回 nil
func ProvideRedis(conf Redis) (redis.UniversalClient, func(), error) {
	if conf.Address == "" {
		log.Infow("redis not configured, skipping")
		return nil, func() {}, nil
	}
	client, err := NewRedis(conf)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warnw("failed to close redis client", "error", err)
		}
	}
	return client, cleanup, nil
}

type Redis struct {
	Mode             string
	Address          string
	Password         string
	DB               int
	PoolSize         int
	UseTLS           bool
	MasterName       string
	SentinelUsername string
	SentinelPassword string
	DialTimeout      int // 连接超时（秒）
	ReadTimeout      int // 读超时（秒）
	WriteTimeout     int // 写超时（秒）
}

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}

// Options builds the universal options for the configured mode.
func (cfg Redis) Options() (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  seconds(cfg.DialTimeout),
		ReadTimeout:  seconds(cfg.ReadTimeout),
		WriteTimeout: seconds(cfg.WriteTimeout),
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	switch cfg.Mode {
	case "", ModeSingle:
		opts.Addrs = []string{cfg.Address}
	case ModeSentinel:
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("redis sentinel mode requires masterName")
		}
		opts.Addrs = strings.Split(cfg.Address, ",")
		opts.MasterName = cfg.MasterName
		opts.SentinelUsername = cfg.SentinelUsername
		opts.SentinelPassword = cfg.SentinelPassword
	default:
		return nil, fmt.Errorf("illegal redis mode: %s", cfg.Mode)
	}
	return opts, nil
}

func NewRedis(cfg Redis) (redis.UniversalClient, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	log.Infow("redis connected", "mode", cfg.Mode)
	return client, nil
}
