package glx

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	glxXRenderable   = 0x8012
	glxDrawableType  = 0x8010
	glxRenderType    = 0x8011
	glxWindowBit     = 0x0001
	glxPixmapBit     = 0x0002
	glxRGBABit       = 0x0001
	glxRGBAType      = 0x8014
	glxDoubleBuffer  = 5
	glxRedSize       = 8
	glxGreenSize     = 9
	glxBlueSize      = 10
	glxVisualID      = 0x800B
	glxBindToTexRGB  = 0x20D0
	glxBindToTexRGBA = 0x20D1
	glxYInverted     = 0x20D4
	glxTexFormat     = 0x20D5
	glxTexTarget     = 0x20D6
	glxBindTargets   = 0x20D3
	glxTexFormatRGB  = 0x20D9
	glxTexFormatRGBA = 0x20DA
	glxTex2DBit      = 0x0002
	glxTex2D         = 0x20DC
	glxFrontLeft     = 0x20DE

	glTexture2D       = 0x0DE1
	glColorBufferBit  = 0x4000
	glQuads           = 0x0007
	glModelView       = 0x1700
	glProjection      = 0x1701
	glTextureMagFilt  = 0x2800
	glTextureMinFilt  = 0x2801
	glTextureWrapS    = 0x2802
	glTextureWrapT    = 0x2803
	glLinear          = 0x2601
	glClampToEdge     = 0x812F
	glBlend           = 0x0BE2
	glSrcAlpha        = 0x0302
	glOneMinusSrcAlph = 0x0303
)

// xVisualInfo mirrors Xlib's XVisualInfo on LP64.
type xVisualInfo struct {
	Visual       uintptr
	VisualID     uint64
	Screen       int32
	Depth        int32
	Class        int32
	_            int32
	RedMask      uint64
	GreenMask    uint64
	BlueMask     uint64
	ColormapSize int32
	BitsPerRGB   int32
}

var (
	libOnce sync.Once
	libErr  error

	libX11 uintptr
	libGL  uintptr

	xOpenDisplay   func(name *byte) uintptr
	xCloseDisplay  func(dpy uintptr) int32
	xDefaultScreen func(dpy uintptr) int32
	xFree          func(ptr unsafe.Pointer) int32

	glxQueryExtensionsString func(dpy uintptr, screen int32) string
	glxChooseFBConfig        func(dpy uintptr, screen int32, attribs *int32, n *int32) unsafe.Pointer
	glxGetFBConfigAttrib     func(dpy, config uintptr, attr int32, value *int32) int32
	glxGetVisualFromFBConfig func(dpy, config uintptr) unsafe.Pointer
	glxCreateNewContext      func(dpy, config uintptr, renderType int32, share uintptr, direct int32) uintptr
	glxDestroyContext        func(dpy, ctx uintptr)
	glxCreateWindow          func(dpy, config, win uintptr, attribs *int32) uintptr
	glxDestroyWindow         func(dpy, win uintptr)
	glxMakeContextCurrent    func(dpy, draw, read, ctx uintptr) int32
	glxSwapBuffers           func(dpy, drawable uintptr)
	glxCreatePixmap          func(dpy, config, pixmap uintptr, attribs *int32) uintptr
	glxDestroyPixmap         func(dpy, pixmap uintptr)
	glxGetProcAddressARB     func(name *byte) uintptr

	// GLX_EXT_texture_from_pixmap, resolved through glXGetProcAddressARB.
	glxBindTexImageEXT    func(dpy, drawable uintptr, buffer int32, attribs *int32)
	glxReleaseTexImageEXT func(dpy, drawable uintptr, buffer int32)

	glViewport       func(x, y, width, height int32)
	glClearColor     func(r, g, b, a float32)
	glClear          func(mask uint32)
	glEnable         func(cap uint32)
	glBlendFunc      func(sfactor, dfactor uint32)
	glGenTextures    func(n int32, textures *uint32)
	glDeleteTextures func(n int32, textures *uint32)
	glBindTexture    func(target, texture uint32)
	glTexParameteri  func(target, pname uint32, param int32)
	glMatrixMode     func(mode uint32)
	glLoadIdentity   func()
	glOrtho          func(left, right, bottom, top, near, far float64)
	glBegin          func(mode uint32)
	glEnd            func()
	glTexCoord2f     func(s, t float32)
	glVertex2i       func(x, y int32)
)

func ensureLibs() error {
	libOnce.Do(func() {
		libX11, libErr = purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if libErr != nil {
			libErr = fmt.Errorf("load libX11: %w", libErr)
			return
		}
		libGL, libErr = purego.Dlopen("libGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if libErr != nil {
			libErr = fmt.Errorf("load libGL: %w", libErr)
			return
		}
		registerX11()
		registerGLX()
		registerGL()
	})
	return libErr
}

func registerX11() {
	purego.RegisterLibFunc(&xOpenDisplay, libX11, "XOpenDisplay")
	purego.RegisterLibFunc(&xCloseDisplay, libX11, "XCloseDisplay")
	purego.RegisterLibFunc(&xDefaultScreen, libX11, "XDefaultScreen")
	purego.RegisterLibFunc(&xFree, libX11, "XFree")
}

func registerGLX() {
	purego.RegisterLibFunc(&glxQueryExtensionsString, libGL, "glXQueryExtensionsString")
	purego.RegisterLibFunc(&glxChooseFBConfig, libGL, "glXChooseFBConfig")
	purego.RegisterLibFunc(&glxGetFBConfigAttrib, libGL, "glXGetFBConfigAttrib")
	purego.RegisterLibFunc(&glxGetVisualFromFBConfig, libGL, "glXGetVisualFromFBConfig")
	purego.RegisterLibFunc(&glxCreateNewContext, libGL, "glXCreateNewContext")
	purego.RegisterLibFunc(&glxDestroyContext, libGL, "glXDestroyContext")
	purego.RegisterLibFunc(&glxCreateWindow, libGL, "glXCreateWindow")
	purego.RegisterLibFunc(&glxDestroyWindow, libGL, "glXDestroyWindow")
	purego.RegisterLibFunc(&glxMakeContextCurrent, libGL, "glXMakeContextCurrent")
	purego.RegisterLibFunc(&glxSwapBuffers, libGL, "glXSwapBuffers")
	purego.RegisterLibFunc(&glxCreatePixmap, libGL, "glXCreatePixmap")
	purego.RegisterLibFunc(&glxDestroyPixmap, libGL, "glXDestroyPixmap")
	purego.RegisterLibFunc(&glxGetProcAddressARB, libGL, "glXGetProcAddressARB")
}

func registerGL() {
	purego.RegisterLibFunc(&glViewport, libGL, "glViewport")
	purego.RegisterLibFunc(&glClearColor, libGL, "glClearColor")
	purego.RegisterLibFunc(&glClear, libGL, "glClear")
	purego.RegisterLibFunc(&glEnable, libGL, "glEnable")
	purego.RegisterLibFunc(&glBlendFunc, libGL, "glBlendFunc")
	purego.RegisterLibFunc(&glGenTextures, libGL, "glGenTextures")
	purego.RegisterLibFunc(&glDeleteTextures, libGL, "glDeleteTextures")
	purego.RegisterLibFunc(&glBindTexture, libGL, "glBindTexture")
	purego.RegisterLibFunc(&glTexParameteri, libGL, "glTexParameteri")
	purego.RegisterLibFunc(&glMatrixMode, libGL, "glMatrixMode")
	purego.RegisterLibFunc(&glLoadIdentity, libGL, "glLoadIdentity")
	purego.RegisterLibFunc(&glOrtho, libGL, "glOrtho")
	purego.RegisterLibFunc(&glBegin, libGL, "glBegin")
	purego.RegisterLibFunc(&glEnd, libGL, "glEnd")
	purego.RegisterLibFunc(&glTexCoord2f, libGL, "glTexCoord2f")
	purego.RegisterLibFunc(&glVertex2i, libGL, "glVertex2i")
}

// procAddress resolves an extension entry point into fptr.
func procAddress(fptr any, name string) error {
	addr := glxGetProcAddressARB(cString(name))
	if addr == 0 {
		return fmt.Errorf("%s: %w", name, ErrNoTextureFromPixmap)
	}
	purego.RegisterFunc(fptr, addr)
	return nil
}

func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}
