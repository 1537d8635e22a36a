package display

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Conn errors.
var (
	ErrResetPin = errors.New("display: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("display: data/command (DC) GPIO pin is invalid")
)

// Conn is the connection interface for communicating with hardware.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Command sends a command byte with optional arguments.
	Command(byte, ...byte) error

	// Data sends data bytes.
	Data(...byte) error
}

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Port name as known to spireg, empty selects the first port.
	Port      string
	Mode      spi.Mode
	SpeedHz   int64
	BatchSize int
	Reset     gpio.PinOut
	DC        gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Mode:      spi.Mode3,
	SpeedHz:   32_000_000,
	BatchSize: 4096,
}

type spiConn struct {
	port      spi.PortCloser
	bus       spi.Conn
	reset     gpio.PinOut
	dc        gpio.PinOut
	dcLevel   gpio.Level
	dcSet     bool
	batchSize int
}

// OpenSPI opens an SPI port with a data/command pin. The host drivers must
// have been initialized with host.Init.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}
	if config.Reset == nil || config.Reset == gpio.INVALID {
		return nil, ErrResetPin
	}
	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}
	if config.SpeedHz == 0 {
		config.SpeedHz = DefaultSPIConfig.SpeedHz
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}

	port, err := spireg.Open(config.Port)
	if err != nil {
		return nil, err
	}
	bus, err := port.Connect(physic.Frequency(config.SpeedHz)*physic.Hertz, config.Mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("display: SPI connect: %w", err)
	}

	batch := config.BatchSize
	if limits, ok := bus.(conn.Limits); ok {
		if n := limits.MaxTxSize(); n > 0 && n < batch {
			batch = n
		}
	}

	return &spiConn{
		port:      port,
		bus:       bus,
		reset:     config.Reset,
		dc:        config.DC,
		batchSize: batch,
	}, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI %s", c.bus)
}

func (c *spiConn) Close() error {
	return c.port.Close()
}

func (c *spiConn) Reset(level gpio.Level) error {
	return c.reset.Out(level)
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if !c.dcSet || c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel, c.dcSet = level, true
	}
	return nil
}

func (c *spiConn) Command(cmnd byte, data ...byte) (err error) {
	if err = c.updateDC(gpio.Low); err != nil {
		return
	}
	if err = c.bus.Tx([]byte{cmnd}, nil); err != nil {
		return
	}
	return c.Data(data...)
}

func (c *spiConn) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.High); err != nil {
		return
	}
	for len(data) > 0 {
		n := min(len(data), c.batchSize)
		if err = c.bus.Tx(data[:n], nil); err != nil {
			return
		}
		data = data[n:]
	}
	return
}
