package bindgen

// MinimalClasses is the allow-list generated in minimal mode. Names the
// loaded description does not contain are ignored.
var MinimalClasses = []string{
	"AnimatedSprite2D",
	"Area2D",
	"AudioStreamPlayer",
	"BaseButton",
	"Button",
	"Camera2D",
	"Camera3D",
	"CanvasItem",
	"CanvasLayer",
	"CollisionObject2D",
	"CollisionShape2D",
	"Control",
	"FileAccess",
	"Input",
	"Label",
	"Line2D",
	"MainLoop",
	"Marker2D",
	"Node",
	"Node2D",
	"Node3D",
	"Node3DGizmo",
	"Object",
	"OS",
	"PackedScene",
	"PathFollow2D",
	"PhysicsBody2D",
	"RefCounted",
	"Resource",
	"ResourceLoader",
	"RigidBody2D",
	"SceneTree",
	"Sprite2D",
	"SpriteFrames",
	"Time",
	"Timer",
}
