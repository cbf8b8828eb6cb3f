// Package glx renders window textures with OpenGL through GLX, loading
// libX11 and libGL at runtime. Every method must run on the OS thread that
// called Attach.
package glx

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/ihorzashchelkin/nylawm/internal/client"
)

var (
	ErrNoDisplay           = errors.New("glx: cannot open display")
	ErrNoFBConfig          = errors.New("glx: no suitable framebuffer config")
	ErrNoTextureFromPixmap = errors.New("glx: GLX_EXT_texture_from_pixmap unavailable")
	ErrNoContext           = errors.New("glx: context creation failed")
)

type pixmapConfig struct {
	config    uintptr
	format    int32
	yInverted bool
}

type binding struct {
	pixmap    uintptr
	yInverted bool
}

// Renderer implements compositor.Renderer.
type Renderer struct {
	dpy    uintptr
	screen int32

	config  uintptr
	visual  xproto.Visualid
	ctx     uintptr
	surface uintptr

	pixmapConfigs map[byte]pixmapConfig
	bindings      map[client.Texture]binding

	log *slog.Logger
}

// Open connects Xlib to display ("" means $DISPLAY) and picks a
// double-buffered RGBA window config.
func Open(display string, log *slog.Logger) (*Renderer, error) {
	if err := ensureLibs(); err != nil {
		return nil, err
	}

	var name *byte
	if display != "" {
		name = cString(display)
	}
	dpy := xOpenDisplay(name)
	if dpy == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoDisplay, display)
	}

	r := &Renderer{
		dpy:           dpy,
		screen:        xDefaultScreen(dpy),
		pixmapConfigs: make(map[byte]pixmapConfig),
		bindings:      make(map[client.Texture]binding),
		log:           log,
	}

	exts := glxQueryExtensionsString(dpy, r.screen)
	if !hasExtension(exts, "GLX_EXT_texture_from_pixmap") {
		r.Close()
		return nil, ErrNoTextureFromPixmap
	}
	if err := procAddress(&glxBindTexImageEXT, "glXBindTexImageEXT"); err != nil {
		r.Close()
		return nil, err
	}
	if err := procAddress(&glxReleaseTexImageEXT, "glXReleaseTexImageEXT"); err != nil {
		r.Close()
		return nil, err
	}

	configs := r.chooseConfigs(windowAttribs())
	if len(configs) == 0 {
		r.Close()
		return nil, ErrNoFBConfig
	}
	r.config = configs[0]
	r.visual = xproto.Visualid(r.attrib(r.config, glxVisualID))

	log.Debug("glx window config", "visual", r.visual, "configs", len(configs))
	return r, nil
}

// VisualID is the X visual a window must use to be attached.
func (r *Renderer) VisualID() xproto.Visualid {
	return r.visual
}

// Attach creates the GL context, makes win its drawable and sets up a
// pixel-space projection with the origin at the top left.
func (r *Renderer) Attach(win xproto.Window, width, height int) error {
	r.ctx = glxCreateNewContext(r.dpy, r.config, glxRGBAType, 0, 1)
	if r.ctx == 0 {
		return ErrNoContext
	}
	r.surface = glxCreateWindow(r.dpy, r.config, uintptr(win), nil)
	if r.surface == 0 {
		return fmt.Errorf("glx: create window for 0x%x failed", uint32(win))
	}
	if glxMakeContextCurrent(r.dpy, r.surface, r.surface, r.ctx) == 0 {
		return fmt.Errorf("%w: make current", ErrNoContext)
	}

	glViewport(0, 0, int32(width), int32(height))
	glMatrixMode(glProjection)
	glLoadIdentity()
	glOrtho(0, float64(width), float64(height), 0, -1, 1)
	glMatrixMode(glModelView)
	glLoadIdentity()
	glEnable(glTexture2D)
	glEnable(glBlend)
	glBlendFunc(glSrcAlpha, glOneMinusSrcAlph)
	return nil
}

// BindPixmap wraps an X pixmap of the given depth in a GLX pixmap and binds
// it as the storage of a new texture.
func (r *Renderer) BindPixmap(pixmap xproto.Pixmap, depth byte, width, height int) (client.Texture, error) {
	cfg, err := r.pixmapConfig(depth)
	if err != nil {
		return 0, err
	}

	attribs := pixmapAttribs(cfg.format)
	glxPixmap := glxCreatePixmap(r.dpy, cfg.config, uintptr(pixmap), &attribs[0])
	if glxPixmap == 0 {
		return 0, fmt.Errorf("glx: create pixmap for 0x%x failed", uint32(pixmap))
	}

	var tex uint32
	glGenTextures(1, &tex)
	glBindTexture(glTexture2D, tex)
	glxBindTexImageEXT(r.dpy, glxPixmap, glxFrontLeft, nil)
	glTexParameteri(glTexture2D, glTextureMinFilt, glLinear)
	glTexParameteri(glTexture2D, glTextureMagFilt, glLinear)
	glTexParameteri(glTexture2D, glTextureWrapS, glClampToEdge)
	glTexParameteri(glTexture2D, glTextureWrapT, glClampToEdge)

	r.bindings[client.Texture(tex)] = binding{pixmap: glxPixmap, yInverted: cfg.yInverted}
	return client.Texture(tex), nil
}

// ReleaseTexture unbinds and deletes the texture and its GLX pixmap. The X
// pixmap itself belongs to the caller.
func (r *Renderer) ReleaseTexture(tex client.Texture) {
	b, ok := r.bindings[tex]
	if !ok {
		return
	}
	delete(r.bindings, tex)

	name := uint32(tex)
	glBindTexture(glTexture2D, name)
	glxReleaseTexImageEXT(r.dpy, b.pixmap, glxFrontLeft)
	glBindTexture(glTexture2D, 0)
	glxDestroyPixmap(r.dpy, b.pixmap)
	glDeleteTextures(1, &name)
}

func (r *Renderer) BeginFrame() {
	glClearColor(0.1, 0.1, 0.1, 1)
	glClear(glColorBufferBit)
}

func (r *Renderer) DrawQuad(tex client.Texture, x, y, width, height int) {
	b, ok := r.bindings[tex]
	if !ok {
		return
	}

	glBindTexture(glTexture2D, uint32(tex))
	glBegin(glQuads)
	for _, v := range quad(x, y, width, height, b.yInverted) {
		glTexCoord2f(v.s, v.t)
		glVertex2i(v.x, v.y)
	}
	glEnd()
}

func (r *Renderer) EndFrame() error {
	glxSwapBuffers(r.dpy, r.surface)
	return nil
}

// Close releases every texture still bound, then the context and display.
func (r *Renderer) Close() {
	for tex := range r.bindings {
		r.ReleaseTexture(tex)
	}
	if r.ctx != 0 {
		glxMakeContextCurrent(r.dpy, 0, 0, 0)
		glxDestroyContext(r.dpy, r.ctx)
		r.ctx = 0
	}
	if r.surface != 0 {
		glxDestroyWindow(r.dpy, r.surface)
		r.surface = 0
	}
	if r.dpy != 0 {
		xCloseDisplay(r.dpy)
		r.dpy = 0
	}
}

func (r *Renderer) chooseConfigs(attribs []int32) []uintptr {
	var n int32
	list := glxChooseFBConfig(r.dpy, r.screen, &attribs[0], &n)
	if list == nil || n == 0 {
		return nil
	}
	defer xFree(list)

	configs := make([]uintptr, n)
	copy(configs, unsafe.Slice((*uintptr)(list), n))
	return configs
}

func (r *Renderer) attrib(config uintptr, attr int32) int32 {
	var v int32
	glxGetFBConfigAttrib(r.dpy, config, attr, &v)
	return v
}

func (r *Renderer) visualDepth(config uintptr) int32 {
	vi := glxGetVisualFromFBConfig(r.dpy, config)
	if vi == nil {
		return 0
	}
	defer xFree(vi)
	return (*xVisualInfo)(vi).Depth
}

// pixmapConfig finds, and caches, a config that can bind pixmaps of depth
// as textures.
func (r *Renderer) pixmapConfig(depth byte) (pixmapConfig, error) {
	if cfg, ok := r.pixmapConfigs[depth]; ok {
		return cfg, nil
	}

	bindAttr, format := int32(glxBindToTexRGB), int32(glxTexFormatRGB)
	if depth == 32 {
		bindAttr, format = glxBindToTexRGBA, glxTexFormatRGBA
	}

	for _, config := range r.chooseConfigs(textureAttribs(bindAttr)) {
		if r.visualDepth(config) != int32(depth) {
			continue
		}
		if r.attrib(config, glxBindTargets)&glxTex2DBit == 0 {
			continue
		}
		cfg := pixmapConfig{
			config:    config,
			format:    format,
			yInverted: r.attrib(config, glxYInverted) != 0,
		}
		r.pixmapConfigs[depth] = cfg
		return cfg, nil
	}
	return pixmapConfig{}, fmt.Errorf("%w for depth %d", ErrNoFBConfig, depth)
}

func hasExtension(list, name string) bool {
	for _, ext := range strings.Fields(list) {
		if ext == name {
			return true
		}
	}
	return false
}

func windowAttribs() []int32 {
	return []int32{
		glxXRenderable, 1,
		glxDrawableType, glxWindowBit,
		glxRenderType, glxRGBABit,
		glxDoubleBuffer, 1,
		glxRedSize, 8,
		glxGreenSize, 8,
		glxBlueSize, 8,
		0,
	}
}

func textureAttribs(bindAttr int32) []int32 {
	return []int32{
		bindAttr, 1,
		glxDrawableType, glxPixmapBit,
		glxBindTargets, glxTex2DBit,
		0,
	}
}

func pixmapAttribs(format int32) []int32 {
	return []int32{
		glxTexTarget, glxTex2D,
		glxTexFormat, format,
		0,
	}
}

type vertex struct {
	x, y int32
	s, t float32
}

// quad lists the corners clockwise from the top left. Texture t runs
// downwards when the pixmap is y-inverted, upwards otherwise.
func quad(x, y, width, height int, yInverted bool) [4]vertex {
	top, bottom := float32(1), float32(0)
	if yInverted {
		top, bottom = 0, 1
	}
	x0, y0 := int32(x), int32(y)
	x1, y1 := int32(x+width), int32(y+height)
	return [4]vertex{
		{x0, y0, 0, top},
		{x1, y0, 1, top},
		{x1, y1, 1, bottom},
		{x0, y1, 0, bottom},
	}
}
