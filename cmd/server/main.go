package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "info",
	}
	roomIdLength = configVar[int]{
		envKey:       "SERVER_ROOM_ID_LENGTH",
		flagKey:      "room-id-length",
		defaultValue: 8,
	}
	roomExp = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_EXP",
		flagKey:      "room-exp",
		defaultValue: 24 * time.Hour,
	}
	voiceLimit = configVar[int]{
		envKey:       "SERVER_VOICE_LIMIT",
		flagKey:      "voice-limit",
		defaultValue: 8,
	}
	videoChatLimit = configVar[int]{
		envKey:       "SERVER_VIDEOCHAT_LIMIT",
		flagKey:      "videochat-limit",
		defaultValue: 4,
	}
	proxyBaseUrl = configVar[string]{
		envKey:       "SERVER_PROXY_BASE_URL",
		flagKey:      "proxy-base-url",
		defaultValue: "",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(roomIdLength.flagKey, roomIdLength.defaultValue, "Generated room id length")
	pflag.Duration(roomExp.flagKey, roomExp.defaultValue, "Room state expiration")
	pflag.Int(voiceLimit.flagKey, voiceLimit.defaultValue, "Maximum number of voice channel participants")
	pflag.Int(videoChatLimit.flagKey, videoChatLimit.defaultValue, "Maximum number of video chat participants")
	pflag.String(proxyBaseUrl.flagKey, proxyBaseUrl.defaultValue, "Media proxy base URL")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(roomIdLength.flagKey, roomIdLength.envKey)
	viper.BindEnv(roomExp.flagKey, roomExp.envKey)
	viper.BindEnv(voiceLimit.flagKey, voiceLimit.envKey)
	viper.BindEnv(videoChatLimit.flagKey, videoChatLimit.envKey)
	viper.BindEnv(proxyBaseUrl.flagKey, proxyBaseUrl.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(roomIdLength.flagKey, roomIdLength.defaultValue)
	viper.SetDefault(roomExp.flagKey, roomExp.defaultValue)
	viper.SetDefault(voiceLimit.flagKey, voiceLimit.defaultValue)
	viper.SetDefault(videoChatLimit.flagKey, videoChatLimit.defaultValue)
	viper.SetDefault(proxyBaseUrl.flagKey, proxyBaseUrl.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	return app.AppConfig{
		Secret:         viper.GetString(secret.flagKey),
		Host:           viper.GetString(host.flagKey),
		Port:           viper.GetInt(port.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
		RoomIdLength:   viper.GetInt(roomIdLength.flagKey),
		RoomExp:        viper.GetDuration(roomExp.flagKey),
		VoiceLimit:     viper.GetInt(voiceLimit.flagKey),
		VideoChatLimit: viper.GetInt(videoChatLimit.flagKey),
		ProxyBaseUrl:   viper.GetString(proxyBaseUrl.flagKey),
		RedisPort:      viper.GetInt(redisPort.flagKey),
		RedisHost:      viper.GetString(redisHost.flagKey),
		RedisPassword:  viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
