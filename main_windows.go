//go:build windows

package main

import (
	"log"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/noredirect/d3d"
	"github.com/vkngwrapper/noredirect/interop"
	"github.com/vkngwrapper/noredirect/spirv"
	"github.com/vkngwrapper/noredirect/vulkan"
	"github.com/vkngwrapper/noredirect/win"
)

type NoRedirectApplication struct {
	options Options

	window *win.Window

	dxDevice    *d3d.Device
	swapChain   *d3d.SwapChain
	composition *d3d.Composition

	vkDevice   *vulkan.Device
	renderPass core1_0.RenderPass
	ring       *interop.Ring
	targets    []*vulkan.SharedTarget
	buffers    *vulkan.Buffers
	pipeline   *vulkan.Pipeline
	commands   *vulkan.CommandBuffers
	renderer   *vulkan.FrameRenderer
}

func (app *NoRedirectApplication) Run() error {
	defer app.cleanup()

	err := app.initWindow()
	if err != nil {
		return err
	}

	err = app.initDevices()
	if err != nil {
		return err
	}

	err = app.initResources()
	if err != nil {
		return err
	}

	return app.mainLoop()
}

func (app *NoRedirectApplication) initWindow() error {
	window, err := win.NewWindow()
	if err != nil {
		return errors.Wrap(err, "create window")
	}
	app.window = window
	return nil
}

func (app *NoRedirectApplication) initDevices() error {
	var err error
	app.dxDevice, err = d3d.NewDevice(app.options.Validation)
	if err != nil {
		return errors.Wrap(err, "create d3d12 device")
	}

	app.vkDevice, err = vulkan.CreateDevice(vulkan.DeviceOptions{
		ApplicationName: win.Title,
		Validation:      app.options.Validation,
		AdapterLUID:     app.dxDevice.AdapterLUID(),
	})
	if err != nil {
		return errors.Wrap(err, "create vulkan device")
	}

	return nil
}

func (app *NoRedirectApplication) initResources() error {
	shaders, err := spirv.LoadPair(app.options.AssetDir)
	if err != nil {
		return errors.Wrap(err, "load shaders")
	}

	app.renderPass, err = vulkan.CreateRenderPass(app.vkDevice.DeviceDriver)
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}

	app.swapChain, err = d3d.NewSwapChain(app.dxDevice)
	if err != nil {
		return errors.Wrap(err, "create swap-chain")
	}

	app.composition, err = d3d.NewComposition(app.window.HWND(), app.swapChain)
	if err != nil {
		return errors.Wrap(err, "compose swap-chain onto window")
	}

	app.ring, err = interop.BuildRing(interop.BufferCount, app.swapChain, &vulkan.SharedImageImporter{
		Device:     app.vkDevice,
		RenderPass: app.renderPass,
	})
	if err != nil {
		return errors.Wrap(err, "share back-buffers")
	}
	for i := 0; i < app.ring.Len(); i++ {
		slot := app.ring.Slot(i)
		log.Printf("back-buffer %d shared as %s (handle %#x)", slot.Index, slot.Shared.Name, slot.Shared.Handle)
	}
	app.targets, err = vulkan.SharedTargets(app.ring.Targets())
	if err != nil {
		return err
	}

	app.buffers, err = vulkan.CreateBuffers(app.vkDevice)
	if err != nil {
		return errors.Wrap(err, "create buffers")
	}

	app.pipeline, err = vulkan.CreatePipeline(app.vkDevice.DeviceDriver, app.renderPass, shaders, app.buffers.Device)
	if err != nil {
		return errors.Wrap(err, "create pipeline")
	}

	err = vulkan.UploadInitial(app.vkDevice, app.buffers, app.targets)
	if err != nil {
		return errors.Wrap(err, "initial upload")
	}

	app.commands, err = vulkan.RecordCommandBuffers(app.vkDevice, app.buffers, app.pipeline, app.renderPass, app.targets)
	if err != nil {
		return errors.Wrap(err, "record frame command buffers")
	}

	app.renderer, err = vulkan.NewFrameRenderer(app.vkDevice, app.buffers, app.commands)
	if err != nil {
		return err
	}

	return nil
}

func (app *NoRedirectApplication) mainLoop() error {
	loop := &interop.FrameLoop{
		Presenter: app.swapChain,
		Renderer:  app.renderer,
		Pump:      app.window,
		Clock:     interop.NewHRClock(),
		FenceWait: app.options.FenceWait,
	}

	err := loop.Run()
	stats := loop.Stats()
	log.Printf("%d frames in %s (%d iterations, %d waiting on the render fence), timer at %.2fs, presentation fence at %d",
		stats.Frames, stats.Elapsed, stats.Iterations, stats.Skipped, app.renderer.Elapsed(), app.swapChain.PresentedValue())
	return err
}

func (app *NoRedirectApplication) cleanup() {
	if app.vkDevice != nil {
		if err := app.vkDevice.WaitIdle(); err != nil {
			log.Printf("wait for vulkan device: %v", err)
		}
	}

	if app.renderer != nil {
		app.renderer.Destroy()
	}
	if app.commands != nil {
		app.commands.Destroy()
	}
	if app.pipeline != nil {
		app.pipeline.Destroy()
	}
	if app.buffers != nil {
		app.buffers.Destroy()
	}
	if app.ring != nil {
		app.ring.Destroy()
	}
	if app.composition != nil {
		app.composition.Release()
	}
	if app.swapChain != nil {
		app.swapChain.Release()
	}
	if app.renderPass.Initialized() {
		app.vkDevice.DeviceDriver.DestroyRenderPass(app.renderPass, nil)
	}
	if app.vkDevice != nil {
		app.vkDevice.Destroy()
	}
	if app.dxDevice != nil {
		app.dxDevice.Release()
	}
	if app.window != nil {
		app.window.Destroy()
	}
}

func main() {
	runtime.LockOSThread()

	options, err := parseOptions(os.Args[1:])
	if errors.Is(err, errHelp) {
		printUsage(os.Stdout)
		os.Exit(0)
	} else if err != nil {
		log.Printf("%v", err)
		log.Println("Use --help or -h for option list.")
		os.Exit(0)
	}

	app := &NoRedirectApplication{options: options}
	err = app.Run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
