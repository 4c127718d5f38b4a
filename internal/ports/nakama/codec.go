package nakama

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"kitchenrush/internal/app"
	"kitchenrush/internal/domain"
)

// ErrMalformedMessage is returned when a client payload cannot be decoded.
var ErrMalformedMessage = errors.New("malformed message")

// decodeStruct parses a client payload. An empty payload decodes to an empty object.
func decodeStruct(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{}}
	if len(data) == 0 {
		return s, nil
	}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return s, nil
}

func stringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func numberField(s *structpb.Struct, key string) (float64, bool) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}
	return n.NumberValue, true
}

func boolField(s *structpb.Struct, key string) (bool, bool) {
	v, ok := s.GetFields()[key]
	if !ok {
		return false, false
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, false
	}
	return b.BoolValue, true
}

// decodeIntent reads {"station": id, "expect": {"station_item": id, "hand_item": id}}.
func decodeIntent(userID string, data []byte) (domain.Intent, error) {
	s, err := decodeStruct(data)
	if err != nil {
		return domain.Intent{}, err
	}
	station := stringField(s, "station")
	if station == "" {
		return domain.Intent{}, fmt.Errorf("%w: station is required", ErrMalformedMessage)
	}
	in := domain.Intent{Player: userID, Station: domain.StationID(station)}
	if v, ok := s.GetFields()["expect"]; ok {
		exp := v.GetStructValue()
		if exp == nil {
			return domain.Intent{}, fmt.Errorf("%w: expect must be an object", ErrMalformedMessage)
		}
		in.Expect = &domain.Expectation{
			StationItem: domain.InstanceID(stringField(exp, "station_item")),
			HandItem:    domain.InstanceID(stringField(exp, "hand_item")),
		}
	}
	return in, nil
}

type profileRequest struct {
	Name  string
	Token string
}

func decodeProfile(data []byte) (profileRequest, error) {
	s, err := decodeStruct(data)
	if err != nil {
		return profileRequest{}, err
	}
	return profileRequest{Name: stringField(s, "name"), Token: stringField(s, "token")}, nil
}

func decodePause(data []byte) (bool, error) {
	s, err := decodeStruct(data)
	if err != nil {
		return false, err
	}
	paused, ok := boolField(s, "paused")
	if !ok {
		return false, fmt.Errorf("%w: paused is required", ErrMalformedMessage)
	}
	return paused, nil
}

func decodeColor(data []byte) (int, error) {
	s, err := decodeStruct(data)
	if err != nil {
		return 0, err
	}
	n, ok := numberField(s, "color")
	if !ok || n != float64(int(n)) {
		return 0, fmt.Errorf("%w: color must be an integer", ErrMalformedMessage)
	}
	return int(n), nil
}

func decodeKick(data []byte) (string, error) {
	s, err := decodeStruct(data)
	if err != nil {
		return "", err
	}
	target := stringField(s, "user_id")
	if target == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrMalformedMessage)
	}
	return target, nil
}

// encodeEvent maps an app event to its opcode and JSON body.
func encodeEvent(ev app.Event) (int64, []byte, error) {
	opCode, fields, err := eventFields(ev)
	if err != nil {
		return 0, nil, err
	}
	data, err := encodeFields(fields)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return opCode, data, nil
}

func encodeFields(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}

func eventFields(ev app.Event) (int64, map[string]interface{}, error) {
	switch p := ev.Payload.(type) {
	case app.RosterPayload:
		return OpCodeRosterChanged, map[string]interface{}{"participants": participantList(p.Participants)}, nil
	case app.ProfileRequestedPayload:
		return OpCodeProfileRequested, map[string]interface{}{"user_id": p.UserID}, nil
	case app.ObjectLinkedPayload:
		return OpCodeObjectLinked, map[string]interface{}{
			"instance":  string(p.Instance),
			"item_type": p.ItemType,
			"holder":    p.Holder,
			"anchor":    p.Anchor,
		}, nil
	case app.ObjectUnlinkedPayload:
		return OpCodeObjectUnlinked, map[string]interface{}{"instance": string(p.Instance), "holder": p.Holder}, nil
	case app.ObjectDestroyedPayload:
		return OpCodeObjectDestroyed, map[string]interface{}{"instance": string(p.Instance)}, nil
	case app.StationChangedPayload:
		return OpCodeStationChanged, map[string]interface{}{
			"station":  string(p.Station),
			"state":    string(p.State),
			"progress": p.Progress,
		}, nil
	case app.CutPayload:
		return OpCodeCut, map[string]interface{}{
			"station":  string(p.Station),
			"instance": string(p.Instance),
			"strikes":  p.Strikes,
		}, nil
	case app.PlateChangedPayload:
		return OpCodePlateChanged, map[string]interface{}{
			"instance":   string(p.Instance),
			"ingredient": p.Ingredient,
			"holder":     p.Holder,
		}, nil
	case app.DispenserChangedPayload:
		return OpCodeDispenserChanged, map[string]interface{}{"station": string(p.Station), "units": p.Units}, nil
	case app.OrdersChangedPayload:
		return OpCodeOrdersChanged, map[string]interface{}{
			"orders":    orderList(p.Orders),
			"spawned":   p.Spawned,
			"fulfilled": p.Fulfilled,
		}, nil
	case app.DeliveryPayload:
		return OpCodeDelivery, map[string]interface{}{
			"success":   p.Success,
			"recipe":    p.Recipe,
			"successes": p.Successes,
		}, nil
	case app.ReadyChangedPayload:
		return OpCodeReadyChanged, map[string]interface{}{"user_id": p.UserID, "all_ready": p.AllReady}, nil
	case app.PauseChangedPayload:
		return OpCodePauseChanged, map[string]interface{}{
			"user_id": p.UserID,
			"paused":  p.Paused,
			"global":  p.Global,
		}, nil
	case app.ClockChangedPayload:
		return OpCodeClockChanged, clockFields(p), nil
	case app.GameOverPayload:
		return OpCodeGameOver, scoreFields(p), nil
	case app.RejectedPayload:
		return OpCodeRejected, map[string]interface{}{"action": p.Action, "reason": p.Reason}, nil
	case app.SnapshotPayload:
		return OpCodeSnapshot, snapshotFields(p), nil
	}
	return 0, nil, fmt.Errorf("unsupported event %s with payload %T", ev.Kind, ev.Payload)
}

func participantList(ps []app.ParticipantView) []interface{} {
	out := make([]interface{}, 0, len(ps))
	for _, p := range ps {
		out = append(out, map[string]interface{}{
			"user_id": p.UserID,
			"name":    p.Name,
			"slot":    p.Slot,
			"color":   p.Color,
			"owner":   p.Owner,
			"ready":   p.Ready,
			"paused":  p.Paused,
		})
	}
	return out
}

func orderList(orders []app.OrderView) []interface{} {
	out := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		out = append(out, map[string]interface{}{"seq": o.Seq, "recipe": o.Recipe})
	}
	return out
}

func clockFields(c app.ClockChangedPayload) map[string]interface{} {
	return map[string]interface{}{"state": c.State, "remaining": c.Remaining}
}

func scoreFields(s app.GameOverPayload) map[string]interface{} {
	return map[string]interface{}{"successes": s.Successes, "failures": s.Failures}
}

func snapshotFields(p app.SnapshotPayload) map[string]interface{} {
	stations := make([]interface{}, 0, len(p.Stations))
	for _, st := range p.Stations {
		stations = append(stations, map[string]interface{}{
			"id":       string(st.ID),
			"kind":     string(st.Kind),
			"state":    string(st.State),
			"progress": st.Progress,
			"count":    st.Count,
			"held":     string(st.Held),
		})
	}
	objects := make([]interface{}, 0, len(p.Objects))
	for _, o := range p.Objects {
		ingredients := make([]interface{}, 0, len(o.Ingredients))
		for _, ing := range o.Ingredients {
			ingredients = append(ingredients, ing)
		}
		objects = append(objects, map[string]interface{}{
			"instance":    string(o.Instance),
			"item_type":   o.ItemType,
			"holder":      o.Holder,
			"ingredients": ingredients,
		})
	}
	return map[string]interface{}{
		"clock":    clockFields(p.Clock),
		"paused":   p.Paused,
		"roster":   participantList(p.Roster),
		"stations": stations,
		"objects":  objects,
		"orders":   orderList(p.Orders),
		"score":    scoreFields(p.Score),
	}
}

// encodeLabel renders the match label queried by quick_match.
func encodeLabel(l domain.LabelPayload) (string, error) {
	data, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(labelStruct(l))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func labelStruct(l domain.LabelPayload) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"open":    structpb.NewBoolValue(l.Open),
		"game":    structpb.NewStringValue(l.Game),
		"phase":   structpb.NewStringValue(l.Phase),
		"players": structpb.NewNumberValue(float64(l.Players)),
	}}
}
