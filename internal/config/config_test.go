package config_test

import (
	"errors"
	"testing"

	"github.com/okian/dice/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Port, convey.ShouldEqual, 3000)
			convey.So(cfg.Addr(), convey.ShouldEqual, ":3000")
			convey.So(cfg.Env, convey.ShouldEqual, "development")
			convey.So(cfg.Production(), convey.ShouldBeFalse)
			convey.So(cfg.StaticDir, convey.ShouldEqual, "client")
			convey.So(cfg.AllowedOrigins, convey.ShouldResemble, []string{
				"http://localhost:3000",
				"https://your-static-app.azurestaticapps.net",
				"https://your-app-service.azurewebsites.net",
			})
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Production(t *testing.T) {
	convey.Convey("Given the environment mode", t, func() {
		cfg := config.New()

		convey.Convey("Then only the exact string production suppresses detail", func() {
			for env, want := range map[string]bool{
				"production":  true,
				"Production":  false,
				"prod":        false,
				"staging":     false,
				"":            false,
				"development": false,
			} {
				cfg.Env = env
				convey.So(cfg.Production(), convey.ShouldEqual, want)
			}
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		convey.Convey("When the port is out of range", func() {
			for _, port := range []int{0, -1, 65536} {
				cfg := config.New()
				cfg.Port = port
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When the log format is unknown", func() {
			cfg := config.New()
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When an allowed origin is empty", func() {
			cfg := config.New()
			cfg.AllowedOrigins = []string{"http://a.example", ""}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the host is set", func() {
			cfg := config.New()
			cfg.Host = "127.0.0.1"
			cfg.Port = 8080
			convey.So(cfg.Addr(), convey.ShouldEqual, "127.0.0.1:8080")
		})
	})
}
