package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"billbook/internal/config"
	"billbook/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentMigrate)
	assert.Equal(t, log.ComponentMigrate, logger.Component())
}

func TestDates(t *testing.T) {
	d := Dates(&config.Config{Timezone: "Asia/Shanghai"})
	assert.Equal(t, "Asia/Shanghai", d.CurrentTime().Location().String())

	d = Dates(&config.Config{Timezone: "Nowhere/Special"})
	assert.Equal(t, time.Local, d.CurrentTime().Location())
}
