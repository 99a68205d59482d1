package scene_test

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cascadedrop/internal/config"
	"github.com/san-kum/cascadedrop/internal/logging"
	"github.com/san-kum/cascadedrop/internal/scene"
	"github.com/san-kum/cascadedrop/internal/sim"
	"github.com/san-kum/cascadedrop/internal/viewer"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Shape.MeshCells = 40
	cfg.Viewer.DataPath = GinkgoT().TempDir()
	return cfg
}

var _ = Describe("Build", func() {
	var (
		cfg *config.Config
		s   *scene.Scene
	)

	BeforeEach(func() {
		cfg = testConfig()
		var err error
		s, err = scene.Build(context.Background(), cfg, logging.Discard())
		Expect(err).NotTo(HaveOccurred())
	})

	It("adds the shape and the floor", func() {
		Expect(s.World.Bodies()).To(HaveLen(2))
		Expect(s.Shape.Name()).To(Equal(scene.ShapeName))
		Expect(s.Floor.Name()).To(Equal(scene.FloorName))
		Expect(s.Floor.Fixed()).To(BeTrue())
		Expect(s.Shape.Fixed()).To(BeFalse())
	})

	It("gives the shape a finite positive mass and inertia", func() {
		Expect(s.Shape.Mass()).To(BeNumerically(">", 0))
		Expect(math.IsInf(s.Shape.Mass(), 0)).To(BeFalse())
		in := s.Shape.Inertia()
		for i := 0; i < 3; i++ {
			Expect(in.At(i, i)).To(BeNumerically(">", 0))
		}
		min, max := s.Solid.BoundingBox()
		for i := 0; i < 3; i++ {
			Expect(max[i]).To(BeNumerically(">", min[i]))
		}
	})

	It("builds every collision model with the world tolerances", func() {
		for _, b := range s.World.Bodies() {
			m := b.CollisionModel()
			Expect(m).NotTo(BeNil())
			Expect(m.Envelope).To(Equal(cfg.Collision.Envelope))
			Expect(m.Margin).To(Equal(cfg.Collision.Margin))
		}
	})

	It("places the floor and colors it", func() {
		Expect(s.Floor.Pos()).To(Equal(mgl64.Vec3{0, -0.3, 0}))
		c, ok := s.Floor.Color()
		Expect(ok).To(BeTrue())
		Expect([3]float32{c.R, c.G, c.B}).To(Equal([3]float32{0.2, 0.2, 0.5}))
		Expect(s.Shape.RefPos().Len()).To(BeNumerically("<", 1e-9))
	})

	It("honors the solver choice", func() {
		jc := testConfig()
		jc.Solver.Type = "jacobi"
		js, err := scene.Build(context.Background(), jc, logging.Discard())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(js.World.SolverType())).To(Equal("jacobi"))
	})
})

var _ = Describe("Build failures", func() {
	It("rejects an invalid config", func() {
		cfg := testConfig()
		cfg.Shape.TorusMinor = 1
		_, err := scene.Build(context.Background(), cfg, logging.Discard())
		Expect(err).To(MatchError(config.ErrInvalid))
	})

	It("stops when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := scene.Build(ctx, testConfig(), logging.Discard())
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Running the drop", func() {
	var (
		cfg  *config.Config
		s    *scene.Scene
		dev  *viewer.Headless
		view *viewer.Viewer
	)

	BeforeEach(func() {
		cfg = testConfig()
		var err error
		s, err = scene.Build(context.Background(), cfg, logging.Discard())
		Expect(err).NotTo(HaveOccurred())
		dev = viewer.NewHeadless(0)
		view = viewer.New(s.World, dev, scene.ViewerOptions(cfg), logging.Discard())
		Expect(s.Attach(view, cfg)).To(Succeed())
	})

	It("binds one proxy per body", func() {
		Expect(view.ProxyCount()).To(Equal(len(s.World.Bodies())))
		Expect(view.Ready()).To(Succeed())
		Expect(view.Timestep()).To(Equal(0.005))
	})

	It("drops the shape while the floor stays put", func() {
		floorStart := s.Floor.Pose()
		shapeStart := s.Shape.Pos()

		loop := sim.New(view, sim.Config{MaxSteps: 100})
		result, err := loop.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(100))
		Expect(s.World.Time()).To(BeNumerically("~", 0.5, 1e-9))

		Expect(s.Floor.Pose()).To(Equal(floorStart))
		Expect(s.Shape.Pos()[1]).To(BeNumerically("<", shapeStart[1]-0.01))
		// The shape lands on the floor instead of tunnelling through it.
		Expect(s.Shape.Pos()[1]).To(BeNumerically(">", -0.2))
	})

	It("keeps proxies consistent when a body is added later", func() {
		extra, err := s.World.NewBoxBody(0.05, 0.05, 0.05, 1000, true, true)
		Expect(err).NotTo(HaveOccurred())
		extra.SetPos(mgl64.Vec3{0.3, 0, 0})

		p, err := scene.AddVisible(s.World, view, extra)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Body).To(BeIdenticalTo(extra))
		Expect(p.Triangles).To(HaveLen(12))
		Expect(view.ProxyCount()).To(Equal(3))
		Expect(view.Ready()).To(Succeed())

		_, err = scene.AddVisible(s.World, view, extra)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Presets", func() {
	for _, name := range config.ListPresets() {
		It("settles the "+name+" preset on the floor", func() {
			cfg := config.GetPreset(name)
			cfg.Viewer.DataPath = GinkgoT().TempDir()
			s, err := scene.Build(context.Background(), cfg, logging.Discard())
			Expect(err).NotTo(HaveOccurred())
			view := viewer.New(s.World, viewer.NewHeadless(0), scene.ViewerOptions(cfg), logging.Discard())
			Expect(s.Attach(view, cfg)).To(Succeed())
			floorStart := s.Floor.Pose()

			loop := sim.New(view, sim.Config{MaxSteps: cfg.Steps()})
			result, err := loop.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Reason).To(Equal(sim.ReasonStepLimit))
			Expect(result.StepsTaken).To(Equal(cfg.Steps()))

			y := s.Shape.Pos()[1]
			Expect(math.IsNaN(y)).To(BeFalse())
			Expect(y).To(BeNumerically(">", -0.2))
			Expect(y).To(BeNumerically("<", -0.1))
			Expect(s.Shape.KineticEnergy()).To(BeNumerically("<", 1e-2))
			Expect(s.Floor.Pose()).To(Equal(floorStart))
		})
	}
})
