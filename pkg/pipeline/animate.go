package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/orgchart/pkg/chart"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/render/svg"
	"github.com/matzehuels/orgchart/pkg/transition"
)

// Action names in animation scripts.
const (
	ActionToggle      = "toggle"
	ActionExpandAll   = "expand-all"
	ActionCollapseAll = "collapse-all"
	ActionWait        = "wait"
)

// Action is one step of an animation script:
//
//	toggle:<id>            toggle:ancestor:<id>
//	expand-all             collapse-all
//	wait:<duration>
type Action struct {
	Name string
	Ref  string
	Wait time.Duration
}

func (a Action) String() string {
	switch {
	case a.Ref != "":
		return a.Name + ":" + a.Ref
	case a.Wait > 0:
		return a.Name + ":" + a.Wait.String()
	}
	return a.Name
}

// ParseAction parses one script step.
func ParseAction(s string) (Action, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch name {
	case ActionToggle:
		if _, _, err := ParseNodeRef(arg); err != nil {
			return Action{}, err
		}
		return Action{Name: name, Ref: arg}, nil
	case ActionExpandAll, ActionCollapseAll:
		if arg != "" {
			return Action{}, errors.New(errors.ErrCodeInvalidInput, "%s takes no argument", name)
		}
		return Action{Name: name}, nil
	case ActionWait:
		d, err := time.ParseDuration(arg)
		if err != nil || d <= 0 {
			return Action{}, errors.New(errors.ErrCodeInvalidInput, "invalid wait %q", arg)
		}
		return Action{Name: name, Wait: d}, nil
	}
	return Action{}, errors.New(errors.ErrCodeInvalidInput, "unknown action %q", s)
}

// ParseActions parses a script. Each element may hold several steps
// separated by commas.
func ParseActions(script []string) ([]Action, error) {
	var actions []Action
	for _, s := range script {
		for _, part := range strings.Split(s, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			a, err := ParseAction(part)
			if err != nil {
				return nil, err
			}
			actions = append(actions, a)
		}
	}
	return actions, nil
}

// Apply performs a on c.
func (a Action) Apply(c *chart.Chart) error {
	switch a.Name {
	case ActionToggle:
		role, id, err := ParseNodeRef(a.Ref)
		if err != nil {
			return err
		}
		_, err = c.Toggle(role, id)
		return err
	case ActionExpandAll:
		return c.ExpandAllNodes()
	case ActionCollapseAll:
		return c.CollapseAllNodes()
	case ActionWait:
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "action %q", a.Name)
}

// animator renders frames of a chart driven by a manual clock.
type animator struct {
	c      *chart.Chart
	clock  *transition.ManualClock
	step   time.Duration
	svg    []svg.Option
	frames [][]byte
}

func (an *animator) snap() {
	an.frames = append(an.frames, svg.RenderSVG(an.c.Frame(), an.svg...))
}

// play samples the running transitions until they finish.
func (an *animator) play() {
	an.snap()
	for !an.c.Idle() {
		an.c.Tick(an.clock.Advance(an.step))
		an.snap()
	}
}

// hold repeats the current frame for d.
func (an *animator) hold(d time.Duration) {
	for t := time.Duration(0); t < d; t += an.step {
		an.clock.Advance(an.step)
		an.snap()
	}
}

func (an *animator) run(actions []Action) error {
	an.play()
	for _, a := range actions {
		if a.Name == ActionWait {
			an.hold(a.Wait)
			continue
		}
		if err := a.Apply(an.c); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		an.play()
	}
	return nil
}

func frameStep(fps int) time.Duration {
	return time.Second / time.Duration(fps)
}
