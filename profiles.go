package fuse

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/ceyewan/fuse/xerrors"
)

// LoadProfiles 从配置文件加载命名的熔断器配置档案
//
// 文件格式（YAML/JSON/TOML，由扩展名决定）：
//
//	breakers:
//	  orders:
//	    failure_threshold: 5
//	    base_interval: 5
//	    interval_unit: 1m
//	    fixed_interval_retries: 3
//	    max_exponential_retries: 5
//	    jitter_enabled: true
//	  payment:
//	    failure_threshold: 3
//	    base_interval: 2
//	    interval_unit: 30s
//
// interval_unit 接受 Go 时长字符串（"30s"、"1m"）或纳秒整数。
// 每个档案会补全默认值并逐一校验，任一档案无效即整体失败。
func LoadProfiles(path string) (map[string]Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, xerrors.Wrapf(err, "failed to read config file %s", path)
	}

	raw := make(map[string]Config)
	if err := v.UnmarshalKey("breakers", &raw, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)); err != nil {
		return nil, xerrors.Wrapf(err, "failed to decode breaker profiles from %s", path)
	}

	profiles := make(map[string]Config, len(raw))
	for name, cfg := range raw {
		if name == "" {
			return nil, xerrors.Wrap(ErrInvalidConfig, "profile name is empty")
		}
		cfg.setDefaults()
		if err := cfg.validate(); err != nil {
			return nil, xerrors.Wrapf(err, "invalid profile %q", name)
		}
		profiles[name] = cfg
	}
	return profiles, nil
}
