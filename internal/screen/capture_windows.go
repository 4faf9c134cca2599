//go:build windows

package screen

import (
	"context"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	gdi32  = windows.NewLazySystemDLL("gdi32.dll")

	procFindWindowW            = user32.NewProc("FindWindowW")
	procIsIconic               = user32.NewProc("IsIconic")
	procGetWindowDC            = user32.NewProc("GetWindowDC")
	procReleaseDC              = user32.NewProc("ReleaseDC")
	procPrintWindow            = user32.NewProc("PrintWindow")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const (
	biRGB        = 0
	dibRGBColors = 0
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type windowsBackend struct{}

// New creates the platform frame source.
func New() Source { return newBase(&windowsBackend{}) }

// capture renders the game window into a memory bitmap with PrintWindow and
// reads back the health-bar region. The bitmap only needs to cover the
// window's top-left corner up to the region's far edge.
func (w *windowsBackend) capture(_ context.Context) detect.Frame {
	const (
		bmpWidth  = detect.RegionX + detect.RegionWidth
		bmpHeight = detect.RegionY + detect.RegionHeight
	)

	title, err := windows.UTF16PtrFromString(WindowTitle)
	if err != nil {
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
	if hwnd == 0 {
		return detect.Frame{Kind: detect.FrameNoWindow}
	}
	if iconic, _, _ := procIsIconic.Call(hwnd); iconic != 0 {
		return detect.Frame{Kind: detect.FrameMinimized}
	}

	winDC, _, _ := procGetWindowDC.Call(hwnd)
	if winDC == 0 {
		slog.Error("GetWindowDC failed")
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}
	defer procReleaseDC.Call(hwnd, winDC)

	memDC, _, _ := procCreateCompatibleDC.Call(winDC)
	if memDC == 0 {
		slog.Error("CreateCompatibleDC failed")
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}
	defer procDeleteDC.Call(memDC)

	bmp, _, _ := procCreateCompatibleBitmap.Call(winDC, bmpWidth, bmpHeight)
	if bmp == 0 {
		slog.Error("CreateCompatibleBitmap failed")
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}
	defer procDeleteObject.Call(bmp)

	procSelectObject.Call(memDC, bmp)

	// Any partial render counts as a capture failure, whatever pixel data
	// ended up in the bitmap.
	if ok, _, _ := procPrintWindow.Call(hwnd, memDC, 1); ok != 1 {
		slog.Error("PrintWindow did not fully succeed")
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}

	// Read the bitmap top-down as 32-bit BGRA.
	bi := bitmapInfoHeader{
		Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:       bmpWidth,
		Height:      -bmpHeight,
		Planes:      1,
		BitCount:    32,
		Compression: biRGB,
	}
	buf := make([]byte, bmpWidth*bmpHeight*4)
	lines, _, _ := procGetDIBits.Call(
		memDC, bmp, 0, bmpHeight,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bi)),
		dibRGBColors,
	)
	if lines == 0 {
		slog.Error("GetDIBits failed")
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}

	f := detect.Frame{
		Kind:   detect.FramePixels,
		Width:  detect.RegionWidth,
		Height: detect.RegionHeight,
		Pix:    make([]uint8, 0, detect.RegionWidth*detect.RegionHeight*3),
	}
	for y := detect.RegionY; y < detect.RegionY+detect.RegionHeight; y++ {
		for x := detect.RegionX; x < detect.RegionX+detect.RegionWidth; x++ {
			o := (y*bmpWidth + x) * 4
			f.Pix = append(f.Pix, buf[o+2], buf[o+1], buf[o]) // BGRA to RGB
		}
	}
	return f
}

func (w *windowsBackend) cleanup() {}
