package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "wirecall"
transport = "tcp"
addr = "127.0.0.1:9300"
admin_addr = "127.0.0.1:9301"
cors_origins = ["http://localhost:3000"]
max_message_bytes = 1048576
`

const clientTemplate = `transport = "tcp"
addr = "127.0.0.1:9300"
url = "http://127.0.0.1:9301/rpc"
ws_url = "ws://127.0.0.1:9301/ws"
origin = "http://localhost:3000"
timeout = "10s"
exit_code = 0

[ssh]
host = "localhost"
user = "wirecall"
key_path = "~/.ssh/id_ed25519"
command = "wirecall"
args = ["serve"]
`
