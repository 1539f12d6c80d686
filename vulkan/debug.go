package vulkan

import (
	"log"

	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    logDebug,
	}
}

// abortsCall reports whether a message of this severity should make the
// offending call fail.
func abortsCall(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) bool {
	return severity&ext_debug_utils.SeverityError != 0
}

func logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	log.Printf("[%s %s] - %s", severity, msgType, data.Message)
	return abortsCall(severity)
}
