package nvim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/neovim/go-client/nvim"

	"github.com/sokinpui/revise/internal/differ"
)

// Manager handles the connection and interaction with a Neovim instance.
type Manager struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// New creates a new Neovim manager, connecting to an existing instance
// or starting a new headless one.
func New() (*Manager, error) {
	for _, env := range []string{"NVIM", "NVIM_LISTEN_ADDRESS"} {
		if addr := os.Getenv(env); addr != "" {
			if v, err := nvim.Dial(addr); err == nil {
				return &Manager{nvim: v}, nil
			}
		}
	}

	tmpDir, err := os.MkdirTemp("", "revise-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	// Wait for the socket file to appear.
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	m := &Manager{
		nvim:          v,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
	}
	if err := m.nvim.Command("set noswapfile"); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to configure headless nvim: %w", err)
	}
	return m, nil
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
	if m.isSelfStarted && m.cmd != nil && m.cmd.Process != nil {
		if err := m.cmd.Process.Kill(); err == nil {
			m.cmd.Wait()
			os.RemoveAll(filepath.Dir(m.socketPath))
		}
	}
}

// ApplyContent loads filePath into a buffer and replaces its lines with
// content. The buffer is left modified; call SaveAllBuffers to write it.
func (m *Manager) ApplyContent(filePath, content string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	var escaped string
	if err := m.nvim.Call("fnameescape", &escaped, absPath); err != nil {
		return fmt.Errorf("failed to escape %s: %w", absPath, err)
	}

	lines := differ.SplitLines(content)
	byteContent := make([][]byte, len(lines))
	for i, s := range lines {
		byteContent[i] = []byte(s)
	}

	b := m.nvim.NewBatch()
	b.Command("edit " + escaped)
	b.SetBufferLines(0, 0, -1, true, byteContent)
	if err := b.Execute(); err != nil {
		return fmt.Errorf("failed to update buffer %s: %w", absPath, err)
	}
	return nil
}

// BufferContent returns the lines of the buffer holding filePath, which may
// differ from the file on disk when the buffer has unsaved edits.
func (m *Manager) BufferContent(filePath string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	var bufnr int
	if err := m.nvim.Call("bufnr", &bufnr, absPath); err != nil {
		return "", err
	}
	if bufnr < 0 {
		return "", os.ErrNotExist
	}
	lines, err := m.nvim.BufferLines(nvim.Buffer(bufnr), 0, -1, true)
	if err != nil {
		return "", fmt.Errorf("failed to read buffer %s: %w", absPath, err)
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l)
	}
	return differ.JoinLines(out), nil
}

// SaveAllBuffers writes all modified buffers to disk.
func (m *Manager) SaveAllBuffers() error {
	if err := m.nvim.Command("wa!"); err != nil {
		return fmt.Errorf("failed to write buffers: %w", err)
	}
	return nil
}
