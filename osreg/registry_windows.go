package osreg

import (
	"errors"
	"fmt"

	"github.com/world-in-progress/hermes/core/logger"
	"golang.org/x/sys/windows/registry"
)

// RegistryIntegrator registers the protocol as a URL ProgID under HKEY_CURRENT_USER.
type RegistryIntegrator struct{}

func protocolKey(protocol string) string {
	return `SOFTWARE\Classes\` + protocol
}

func (RegistryIntegrator) Install(protocol string, command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty handler command for %s", protocol)
	}

	class, _, err := registry.CreateKey(registry.CURRENT_USER, protocolKey(protocol), registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer class.Close()

	if err := class.SetStringValue("", fmt.Sprintf("URL:%s Protocol", protocol)); err != nil {
		return err
	}
	// marks the class as a protocol handler
	if err := class.SetStringValue("URL Protocol", ""); err != nil {
		return err
	}

	icon, _, err := registry.CreateKey(class, "DefaultIcon", registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer icon.Close()
	if err := icon.SetStringValue("", fmt.Sprintf(`"%s",0`, command[0])); err != nil {
		return err
	}

	open, _, err := registry.CreateKey(class, `shell\open\command`, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer open.Close()
	if err := open.SetStringValue("", CommandLine(command)); err != nil {
		return err
	}

	logger.Debug("registered HKCU\\%s", protocolKey(protocol))
	return nil
}

func (RegistryIntegrator) Uninstall(protocol string) error {
	return deleteTree(registry.CURRENT_USER, protocolKey(protocol))
}

// deleteTree removes path and all of its subkeys; a missing key is not an error.
func deleteTree(root registry.Key, path string) error {
	k, err := registry.OpenKey(root, path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	names, err := k.ReadSubKeyNames(-1)
	k.Close()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := deleteTree(root, path+`\`+name); err != nil {
			return err
		}
	}
	if err := registry.DeleteKey(root, path); err != nil && !errors.Is(err, registry.ErrNotExist) {
		return err
	}
	return nil
}
