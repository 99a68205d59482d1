package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestWatcherReportsEdits(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	other := filepath.Join(dir, "notes.txt")
	g.Expect(os.WriteFile(path, []byte("density: 1000\n"), 0644)).To(Succeed())

	w, err := New(path, 10*time.Millisecond)
	g.Expect(err).NotTo(HaveOccurred())
	defer w.Close()

	g.Expect(w.Changed()).To(BeFalse())

	g.Expect(os.WriteFile(other, []byte("ignored"), 0644)).To(Succeed())
	g.Consistently(w.Changed, 200*time.Millisecond, 20*time.Millisecond).Should(BeFalse())

	g.Expect(os.WriteFile(path, []byte("density: 500\n"), 0644)).To(Succeed())
	g.Eventually(w.Changed, 2*time.Second, 20*time.Millisecond).Should(BeTrue())
}

func TestWatcherFiresOnceAfterBurst(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scene.yaml")
	g.Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

	w, err := New(path, 150*time.Millisecond)
	g.Expect(err).NotTo(HaveOccurred())
	defer w.Close()

	for i := 0; i < 5; i++ {
		g.Expect(os.WriteFile(path, []byte{byte('0' + i)}, 0644)).To(Succeed())
		time.Sleep(20 * time.Millisecond)
	}
	// The file is still inside the quiet period of the last write.
	g.Expect(w.Changed()).To(BeFalse())

	g.Eventually(w.Events, 2*time.Second).Should(Receive(Equal(path)))
	g.Consistently(w.Events, 300*time.Millisecond).ShouldNot(Receive())
}

func TestWatcherClose(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "scene.yaml")
	g.Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

	w, err := New(path, DefaultDebounce)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(w.Close()).To(Succeed())
	g.Expect(w.Close()).To(Succeed())
	g.Expect(w.Changed()).To(BeFalse())
}

func TestWatcherMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "scene.yaml"), DefaultDebounce)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
