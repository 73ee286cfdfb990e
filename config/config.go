package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type EncoderDecoderType string

const JSON_ENCODER_DECODER EncoderDecoderType = "JSON"

type Config struct {
	RedisConfig         RedisStorageConfig
	InMemoryConfig      InmemStorageConfig
	RenderConfig        RenderBackendConfig
	HttpPort            int
	StorageType         StorageType
	EncoderDecoderType  EncoderDecoderType
	DispatchConcurrency int
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}

type InmemStorageConfig struct {
}

type RenderBackendConfig struct {
	Endpoint string
	Timeout  time.Duration
}
