// Package logdriver is a command driver with no hardware behind it. Commands are logged at
// debug level, which is useful on a bench or a laptop.
package logdriver

import (
	"sync"

	"github.com/Speshl/gorrc_tank/internal/config"
	"github.com/Speshl/gorrc_tank/internal/vehicle"
	"go.uber.org/zap"
)

type CommandDriver struct {
	lock   sync.Mutex
	cfg    config.CommandConfig
	values map[string]float64
	logger *zap.Logger
}

func NewCommand(cfg config.CommandConfig, logger *zap.Logger) *CommandDriver {
	return &CommandDriver{
		cfg:    cfg,
		values: make(map[string]float64, len(cfg.MotorCfgs)),
		logger: logger.Named("logdriver"),
	}
}

func (c *CommandDriver) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i := range c.cfg.MotorCfgs {
		c.values[c.cfg.MotorCfgs[i].Name] = 0
		c.logger.Info("motor added", zap.String("name", c.cfg.MotorCfgs[i].Name))
	}
	return nil
}

func (c *CommandDriver) Stop() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	for name := range c.values {
		c.values[name] = 0
	}
	c.logger.Info("stopped")
	return nil
}

func (c *CommandDriver) SetMany(cmds []vehicle.DriverCommand) error {
	for i := range cmds {
		err := c.Set(cmds[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *CommandDriver) Set(cmd vehicle.DriverCommand) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if _, ok := c.values[cmd.Name]; !ok {
		return nil
	}
	if c.values[cmd.Name] != cmd.Value {
		c.logger.Debug("motor set", zap.String("name", cmd.Name), zap.Float64("value", cmd.Value))
	}
	c.values[cmd.Name] = cmd.Value
	return nil
}

// Value is the last value set on a motor.
func (c *CommandDriver) Value(name string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.values[name]
}
