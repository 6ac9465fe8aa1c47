package game

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/nectar/config"
	"github.com/pthm-cable/nectar/geom"
	"github.com/pthm-cable/nectar/physics"
	"github.com/pthm-cable/nectar/systems"
)

// boundaryThickness is the depth of each wall box around the field.
const boundaryThickness = 1.0

// fieldBuilder walks the layout tree and creates flowers in the physics world.
type fieldBuilder struct {
	cfg     config.FieldConfig
	world   *physics.World
	field   *systems.ResourceField
	flowers []*physics.FlowerBody
}

// buildField creates the resource field described by cfg.Field.Layout.
// Flowers are registered in depth-first layout order.
func buildField(cfg *config.Config, world *physics.World, rng systems.RNG) (*systems.ResourceField, []*physics.FlowerBody, error) {
	b := &fieldBuilder{
		cfg:   cfg.Field,
		world: world,
		field: systems.NewResourceField(rng, cfg.Field.GroupTilt),
	}
	if err := b.visit(&cfg.Field.Layout, cfg.Field.Origin.Vec(), nil, "layout"); err != nil {
		return nil, nil, err
	}
	return b.field, b.flowers, nil
}

// visit creates the node at parent+node.Position and recurses into children.
// Flowers attach to the innermost enclosing plant group.
func (b *fieldBuilder) visit(n *config.NodeConfig, parent r3.Vec, group *systems.PlantGroup, path string) error {
	pos := r3.Add(parent, n.Position.Vec())

	switch n.Kind {
	case config.KindPlantGroup:
		group = b.field.AddGroup(n.Name, pos)
	case config.KindFlower:
		return b.addFlower(n, pos, group, path)
	}

	for i := range n.Children {
		child := &n.Children[i]
		name := child.Name
		if name == "" {
			name = fmt.Sprintf("children[%d]", i)
		}
		if err := b.visit(child, pos, group, path+"."+name); err != nil {
			return err
		}
	}
	return nil
}

func (b *fieldBuilder) addFlower(n *config.NodeConfig, pos r3.Vec, group *systems.PlantGroup, path string) error {
	up := geom.Euler(n.Tilt.Pitch, n.Tilt.Yaw, 0).Rotate(geom.Up)

	offset := pos
	if group != nil {
		offset = r3.Sub(pos, group.Position)
	}

	body := b.world.NewFlowerBody(pos, up, b.cfg.PetalRadius, b.cfg.NectarRadius, b.cfg.NectarOffset)
	res := systems.NewNectarResource(body.Sensor(), systems.Placement{
		Group:        group,
		Offset:       offset,
		Up:           up,
		NectarOffset: b.cfg.NectarOffset,
	}, body)
	if err := b.field.AddResource(res); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	b.flowers = append(b.flowers, body)
	return nil
}
