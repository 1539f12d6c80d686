package vulkan

import (
	"log"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/core1_1"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
)

type DeviceOptions struct {
	ApplicationName string
	Validation      bool
	// AdapterLUID selects the physical device sharing the presenting
	// adapter. Zero means no preference.
	AdapterLUID uint64
}

// Identity is what the driver reports about a physical device.
type Identity struct {
	Name      string
	UUID      uuid.UUID
	LUID      uint64
	LUIDValid bool

	// NonCoherentAtomSize is the granularity of flushes of non-coherent memory.
	NonCoherentAtomSize int
}

type Device struct {
	GlobalDriver   core1_0.GlobalDriver
	InstanceDriver core1_0.CoreInstanceDriver
	DeviceDriver   core1_0.DeviceDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	PhysicalDevice core1_0.PhysicalDevice
	Identity       Identity
	QueueFamily    int
	Queue          core1_0.Queue
	MemoryTypes    []core1_0.MemoryPropertyFlags

	external externalMemoryProcs
}

// CreateDevice brings up the instance, the debug messenger, a physical
// device, a logical device with one graphics queue and the external memory
// entry points. On failure everything created so far is destroyed.
func CreateDevice(options DeviceOptions) (_ *Device, ferr error) {
	d := &Device{}
	defer func() {
		if ferr != nil {
			d.Destroy()
		}
	}()

	var err error
	d.GlobalDriver, err = core.CreateSystemDriver()
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	err = d.createInstance(options)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}

	if options.Validation {
		d.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(d.InstanceDriver)
		d.debugMessenger, _, err = d.debugDriver.CreateDebugUtilsMessenger(nil, debugMessengerOptions())
		if err != nil {
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	err = d.pickPhysicalDevice(options.AdapterLUID)
	if err != nil {
		return nil, errors.Wrap(err, "pick physical device")
	}

	err = d.createLogicalDevice()
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}

	d.external, err = resolveExternalMemoryProcs(d.DeviceDriver.Device())
	if err != nil {
		return nil, errors.Wrap(err, "resolve external memory entry points")
	}

	return d, nil
}

func (d *Device) createInstance(options DeviceOptions) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    options.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_1,
	}

	extensions, _, err := d.GlobalDriver.AvailableExtensions()
	if err != nil {
		return err
	}

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if options.Validation {
		_, hasDebugUtils := extensions[ext_debug_utils.ExtensionName]
		if !hasDebugUtils {
			return errors.Errorf("missing instance extension %s", ext_debug_utils.ExtensionName)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)

		layers, _, err := d.GlobalDriver.AvailableLayers()
		if err != nil {
			return err
		}

		for _, layer := range validationLayers {
			_, hasValidation := layers[layer]
			if !hasValidation {
				return errors.Errorf("cannot add validation layer %s: not available, install the LunarG Vulkan SDK or pass --no-validation", layer)
			}
			instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, layer)
		}

		instanceOptions.Next = debugMessengerOptions()
	}

	d.InstanceDriver, _, err = d.GlobalDriver.CreateInstance(nil, instanceOptions)
	return err
}

func (d *Device) pickPhysicalDevice(adapterLUID uint64) error {
	physicalDevices, _, err := d.InstanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return err
	}
	if len(physicalDevices) == 0 {
		return errors.New("no vulkan physical devices")
	}

	identities := make([]Identity, 0, len(physicalDevices))
	for _, physicalDevice := range physicalDevices {
		identity, err := d.identify(physicalDevice)
		if err != nil {
			return err
		}
		identities = append(identities, identity)
	}

	index, err := matchAdapter(identities, adapterLUID)
	if err != nil {
		return err
	}
	d.PhysicalDevice = physicalDevices[index]
	d.Identity = identities[index]
	log.Printf("rendering on %s (%s)", d.Identity.Name, d.Identity.UUID)

	families := d.InstanceDriver.GetPhysicalDeviceQueueFamilyProperties(d.PhysicalDevice)
	caps := make([]queueFamilyCaps, 0, len(families))
	for _, family := range families {
		caps = append(caps, queueFamilyCaps{
			Graphics: family.QueueFlags&core1_0.QueueGraphics != 0,
			Count:    family.QueueCount,
		})
	}

	d.QueueFamily, err = graphicsQueueFamily(caps)
	if err != nil {
		return err
	}

	d.MemoryTypes = memoryTypeFlags(d.InstanceDriver.GetPhysicalDeviceMemoryProperties(d.PhysicalDevice))
	return nil
}

func (d *Device) identify(physicalDevice core1_0.PhysicalDevice) (Identity, error) {
	properties, err := d.InstanceDriver.GetPhysicalDeviceProperties(physicalDevice)
	if err != nil {
		return Identity{}, err
	}
	identity := Identity{
		Name:                properties.DeviceName,
		NonCoherentAtomSize: int(properties.Limits.NonCoherentAtomSize),
	}

	instance11, ok := d.InstanceDriver.(core1_1.CoreInstanceDriver)
	if !ok {
		return identity, nil
	}

	var idProperties core1_1.PhysicalDeviceIDProperties
	err = instance11.GetPhysicalDeviceProperties2(physicalDevice, &core1_1.PhysicalDeviceProperties2{
		NextOutData: common.NextOutData{Next: &idProperties},
	})
	if err != nil {
		return Identity{}, err
	}

	identity.UUID = idProperties.DeviceUUID
	identity.LUID = idProperties.DeviceLUID
	identity.LUIDValid = idProperties.DeviceLUIDValid
	return identity, nil
}

func (d *Device) createLogicalDevice() error {
	var err error
	d.DeviceDriver, _, err = d.InstanceDriver.CreateDevice(d.PhysicalDevice, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: []core1_0.DeviceQueueCreateInfo{
			{
				QueueFamilyIndex: d.QueueFamily,
				QueuePriorities:  []float32{1.0},
			},
		},
		EnabledExtensionNames: []string{ExternalMemoryWin32ExtensionName},
	})
	if err != nil {
		return err
	}

	d.Queue = d.DeviceDriver.GetQueue(d.QueueFamily, 0)
	return nil
}

func (d *Device) WaitIdle() error {
	if d.DeviceDriver == nil {
		return nil
	}
	_, err := d.DeviceDriver.DeviceWaitIdle()
	return err
}

func (d *Device) Destroy() {
	if d.DeviceDriver != nil {
		d.DeviceDriver.DestroyDevice(nil)
		d.DeviceDriver = nil
	}

	if d.debugMessenger.Initialized() {
		d.debugDriver.DestroyDebugUtilsMessenger(d.debugMessenger, nil)
		d.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}

	if d.InstanceDriver != nil {
		d.InstanceDriver.DestroyInstance(nil)
		d.InstanceDriver = nil
	}
}

type queueFamilyCaps struct {
	Graphics bool
	Count    int
}

// graphicsQueueFamily returns the lowest family index with graphics support
// and at least one queue.
func graphicsQueueFamily(families []queueFamilyCaps) (int, error) {
	for i, family := range families {
		if family.Graphics && family.Count > 0 {
			return i, nil
		}
	}
	return 0, errors.New("no queue family supports graphics")
}

// matchAdapter picks the device whose LUID equals the presenting adapter's.
// Only when no device reports a LUID at all does it fall back to the first
// enumerated device.
func matchAdapter(identities []Identity, adapterLUID uint64) (int, error) {
	if adapterLUID == 0 {
		return 0, nil
	}

	reported := false
	for i, identity := range identities {
		if !identity.LUIDValid {
			continue
		}
		reported = true
		if identity.LUID == adapterLUID {
			return i, nil
		}
	}

	if reported {
		return 0, errors.Newf("no vulkan device shares adapter LUID %#016x", adapterLUID)
	}
	log.Printf("no vulkan device reports a LUID, assuming %s drives adapter %#016x", identities[0].Name, adapterLUID)
	return 0, nil
}
