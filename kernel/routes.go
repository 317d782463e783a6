package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/assistant/command"
	"github.com/tailored-agentic-units/assistant/resource"
)

// Route names, in match priority order.
const (
	routeGreeting = "greeting"
	routeLightOn  = "light.on"
	routeLightOff = "light.off"
	routeStatus   = "status"
	routeEmotion  = "emotion"
	routeTime     = "time"
	routeRest     = "rest"
	routeHelp     = "help"
	routeShutdown = "shutdown"
	routeFallback = "fallback"
)

const (
	msgLightDenied = "Permission denied to control room lights."
	msgHelp        = "Available commands: oi, ligar a luz [0-100], apagar a luz, " +
		"status, emoção, hora, descansar, ajuda, desligar."
)

// Handlers run with the kernel state lock held and must not take it again.
func (k *Kernel) newRouter() (*command.Router, error) {
	r := command.NewRouter()

	routes := []command.Route{
		{
			Name:   routeGreeting,
			Match:  command.Exact("oi", "olá", "ola", "hello", "hi"),
			Handle: k.greet,
		},
		{
			Name:   routeLightOn,
			Match:  command.Phrase("ligar a luz", "acender a luz", "turn on the light", "light on"),
			Handle: k.lightOn,
		},
		{
			Name:   routeLightOff,
			Match:  command.Phrase("apagar a luz", "desligar a luz", "turn off the light", "light off"),
			Handle: k.lightOff,
		},
		{
			Name:   routeStatus,
			Match:  command.Contains("status"),
			Handle: k.status,
		},
		{
			Name:   routeEmotion,
			Match:  command.Contains("emoção", "emocao", "emotion", "humor", "feeling"),
			Handle: k.mood,
		},
		{
			Name:   routeTime,
			Match:  command.Any(command.Prefix("hora"), command.Phrase("time")),
			Handle: k.clock,
		},
		{
			Name:   routeRest,
			Match:  command.Any(command.Prefix("descans"), command.Phrase("vou sair", "rest", "idle")),
			Handle: k.rest,
		},
		{
			Name:   routeHelp,
			Match:  command.Any(command.Prefix("ajud"), command.Phrase("help")),
			Handle: k.help,
		},
		{
			Name: routeShutdown,
			Match: command.Any(
				command.Contains("desligar sistema"),
				command.Exact("desligar", "shutdown"),
			),
			Handle: k.shutdown,
		},
	}

	for _, route := range routes {
		if err := r.Register(route); err != nil {
			return nil, err
		}
	}
	r.Fallback(routeFallback, k.acknowledge)

	return r, nil
}

func (k *Kernel) greet(context.Context, command.Command) (string, error) {
	k.emotion.Adjust(k.cfg.Deltas.Greeting)
	if k.cfg.Operator != "" {
		return fmt.Sprintf("Hello %s. All systems ready.", k.cfg.Operator), nil
	}
	return "Hello. All systems ready.", nil
}

func (k *Kernel) lightOn(_ context.Context, cmd command.Command) (string, error) {
	if !k.cfg.Permissions.LightControl {
		return msgLightDenied, nil
	}

	intensity := resource.MaxIntensity
	if n, ok := command.TrailingInt(cmd.Normalized); ok {
		intensity = max(0, min(resource.MaxIntensity, n))
	}

	wasOn := k.light.State().On
	if !k.light.TurnOn(intensity) {
		return "The room light is already on.", nil
	}
	k.emotion.Adjust(k.cfg.Deltas.LightOn)

	switch {
	case wasOn:
		return fmt.Sprintf("Room light adjusted to %d%%.", intensity), nil
	case intensity == resource.MaxIntensity:
		return "Room light activated. Illumination levels optimal.", nil
	default:
		return fmt.Sprintf("Room light activated at %d%%.", intensity), nil
	}
}

func (k *Kernel) lightOff(context.Context, command.Command) (string, error) {
	if !k.cfg.Permissions.LightControl {
		return msgLightDenied, nil
	}
	if !k.light.TurnOff() {
		return "The room light is already off.", nil
	}
	k.emotion.Adjust(k.cfg.Deltas.LightOff)
	return "Room light deactivated. Energy saving mode enabled.", nil
}

func (k *Kernel) status(context.Context, command.Command) (string, error) {
	regs := k.registers.Snapshot()
	uptime := k.now().Sub(regs.UptimeStart).Truncate(time.Second)
	return fmt.Sprintf(
		"CPU load at %.2f. RAM %.0f of %.0f MB. Uptime %s.",
		regs.Load, k.ram.UsedMB(), k.ram.CapacityMB(), uptime,
	), nil
}

func (k *Kernel) mood(context.Context, command.Command) (string, error) {
	dopamine, label := k.emotion.State()
	return fmt.Sprintf("Emotional state %s. Dopamine level %.2f.", label, dopamine), nil
}

func (k *Kernel) clock(context.Context, command.Command) (string, error) {
	return fmt.Sprintf("Current time is %s.", k.now().Format(time.TimeOnly)), nil
}

func (k *Kernel) rest(context.Context, command.Command) (string, error) {
	if err := k.registers.SetState(resource.StateIdle); err != nil {
		return "", err
	}
	k.emotion.Adjust(k.cfg.Deltas.Rest)
	return "Rest acknowledged. I will remain idle. You always return.", nil
}

func (k *Kernel) help(context.Context, command.Command) (string, error) {
	return msgHelp, nil
}

func (k *Kernel) shutdown(context.Context, command.Command) (string, error) {
	if err := k.registers.SetState(resource.StateShutdown); err != nil {
		return "", err
	}
	if k.cfg.Operator != "" {
		return fmt.Sprintf("Shutdown acknowledged. Rest mode active. Welcome back anytime, %s.", k.cfg.Operator), nil
	}
	return "Shutdown acknowledged. Rest mode active. Welcome back anytime.", nil
}

func (k *Kernel) acknowledge(context.Context, command.Command) (string, error) {
	k.emotion.Adjust(k.cfg.Deltas.Fallback)
	return "Command received. No action required.", nil
}
