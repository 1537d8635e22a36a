package framebuffer

import (
	"image"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"github.com/BeatGlow/pixelclock/display"
	"github.com/BeatGlow/pixelclock/pixel"
)

const (
	// From <linux/fb.h>
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
	fbioBlank          = 0x4611

	fbBlankUnblank   = 0
	fbBlankPowerdown = 4
)

type linuxFrameBuffer struct {
	mu         sync.Mutex
	f          *os.File
	fd         uintptr
	pix        []byte
	stride     int
	size       image.Point
	format     Format
	rotation   display.Rotation
	brightness uint8
	info       linuxFrameBufferInfo
	screenInfo linuxVarScreenInfo
}

// Open a Linux FrameBuffer device (fbdev) by name, typically /dev/fb[0..x].
func Open(name string, rotation display.Rotation) (display.Display, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	fb := &linuxFrameBuffer{
		f:          f,
		fd:         f.Fd(),
		rotation:   rotation & 3,
		brightness: 0xff,
	}
	if err = fb.ioctl(fbioGetFScreenInfo, unsafe.Pointer(&fb.info)); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Request virtual screen info.
	if err = fb.ioctl(fbioGetVScreenInfo, unsafe.Pointer(&fb.screenInfo)); err != nil {
		_ = f.Close()
		return nil, err
	}
	if fb.format, err = ParseFormat(fb.screenInfo.BitsPerPixel,
		fb.screenInfo.Red.field(), fb.screenInfo.Green.field(), fb.screenInfo.Blue.field()); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Map pixel buffer.
	if fb.pix, err = syscall.Mmap(int(fb.fd), 0, int(fb.info.SmemLen), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED); err != nil {
		_ = f.Close()
		return nil, err
	}

	fb.stride = int(fb.info.LineLength)
	if fb.stride == 0 {
		fb.stride = int(fb.screenInfo.XresVirtual) * fb.format.BytesPerPixel()
	}
	fb.size = image.Pt(int(fb.screenInfo.Xres), int(fb.screenInfo.Yres))
	return fb, nil
}

func (fb *linuxFrameBuffer) String() string {
	return "framebuffer " + fb.f.Name() + " " + fb.format.String()
}

func (fb *linuxFrameBuffer) Bounds() image.Rectangle {
	return image.Rectangle{Max: fb.size}
}

// Close the framebuffer device
func (fb *linuxFrameBuffer) Close() error {
	if err := syscall.Munmap(fb.pix); err != nil {
		return err
	}
	return fb.f.Close()
}

// Show toggles the display on or off. Drivers without blanking support
// report an error that is safe to ignore.
func (fb *linuxFrameBuffer) Show(show bool) error {
	mode := fbBlankPowerdown
	if show {
		mode = fbBlankUnblank
	}
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fb.fd, fbioBlank, uintptr(mode))
	if errno != 0 {
		return &os.SyscallError{Syscall: "FBIOBLANK", Err: errno}
	}
	return nil
}

// SetBrightness dims all subsequent frames.
func (fb *linuxFrameBuffer) SetBrightness(level uint8) error {
	fb.mu.Lock()
	fb.brightness = level
	fb.mu.Unlock()
	return nil
}

// SetRotation adjusts the pixel rotation.
func (fb *linuxFrameBuffer) SetRotation(rotation display.Rotation) error {
	fb.mu.Lock()
	fb.rotation = rotation & 3
	fb.mu.Unlock()
	return nil
}

// Present rotates, scales and centers frame on the screen.
func (fb *linuxFrameBuffer) Present(frame *pixel.CRGB16Image) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	frame = display.Rotate(frame, fb.rotation)
	scale, origin, err := display.Fit(frame.Bounds().Size(), fb.size)
	if err != nil {
		return err
	}
	blit(fb.pix, fb.stride, fb.format, origin, display.Upscale(frame, scale), fb.brightness)
	return nil
}

func (fb *linuxFrameBuffer) ioctl(cmd uintptr, arg unsafe.Pointer) (err error) {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fb.fd, cmd, uintptr(arg)); errno != 0 {
		return &os.SyscallError{
			Syscall: "SYS_IOCTL",
			Err:     errno,
		}
	}
	return nil
}

type linuxFrameBufferInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Reserved for future compatibility
}

// linuxBitField for the color
type linuxBitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

func (f linuxBitField) field() BitField {
	return BitField{Offset: f.Offset, Length: f.Length}
}

// linuxVarScreenInfo contains device independent changeable information about a frame buffer device and a specific video mode.
type linuxVarScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha linuxBitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

var _ display.Display = (*linuxFrameBuffer)(nil)
